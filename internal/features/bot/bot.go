package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"giveaway-draw-bot/internal/common/ephemeral"
	"giveaway-draw-bot/internal/common/logger"
	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/service"
	tgutil "giveaway-draw-bot/internal/utils/telegram"
)

const entryPayloadPrefix = "gw_"

var (
	btnMenuMain     = tele.Btn{Unique: "menu_main", Text: "⬅️ Back to menu"}
	btnMenuMembers  = tele.Btn{Unique: "menu_members", Text: "👥 Member list"}
	btnMenuDraw     = tele.Btn{Unique: "menu_draw", Text: "🎁 Draw"}
	btnMenuDrawPost = tele.Btn{Unique: "menu_draw_post", Text: "📣 Post giveaway"}
	btnFinish       = tele.Btn{Unique: "gwe", Text: "🎉 Finish giveaway"}
	btnMsgWinners   = tele.Btn{Unique: "msg_winners", Text: "✉️ Message the winners"}
)

// Bot wires the conversational UI to the giveaway service.
type Bot struct {
	tb       *tele.Bot
	svc      *service.GiveawayService
	tokens   *ephemeral.Store
	states   *StateStore
	excluded map[string]struct{}

	enablePostGiveaway bool
}

func New(tb *tele.Bot, svc *service.GiveawayService, tokens *ephemeral.Store, states *StateStore, excludedUsernames []string, enablePostGiveaway bool) *Bot {
	return &Bot{
		tb:                 tb,
		svc:                svc,
		tokens:             tokens,
		states:             states,
		excluded:           service.ExcludedUsernamesFromList(excludedUsernames),
		enablePostGiveaway: enablePostGiveaway,
	}
}

// Register installs all command, text and callback handlers.
func (b *Bot) Register() {
	b.tb.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer func() { _ = c.Respond() }()
			}
			return next(c)
		}
	})

	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/ping", func(c tele.Context) error { return c.Send("pong") })
	b.tb.Handle("/draw", b.handleDrawCommand)
	b.tb.Handle("/whois", b.handleWhois)
	b.tb.Handle("/history", b.handleHistory)
	b.tb.Handle(tele.OnText, b.handleText)

	b.tb.Handle(&btnMenuMain, func(c tele.Context) error { return b.showMainMenu(c, "Main menu") })
	b.tb.Handle(&btnMenuMembers, b.handleMenuMembers)
	b.tb.Handle(&btnMenuDraw, b.handleMenuDraw)
	b.tb.Handle(&btnMenuDrawPost, b.handleMenuDrawPost)
	b.tb.Handle(&btnFinish, b.handleFinish)
	b.tb.Handle(&btnMsgWinners, b.handleMsgWinners)
}

// Start runs the long poller until Stop.
func (b *Bot) Start() {
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
}

func mainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnMenuMembers, btnMenuDraw),
		markup.Row(btnMenuDrawPost),
	)
	return markup
}

func backToMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnMenuMain))
	return markup
}

func (b *Bot) showMainMenu(c tele.Context, text string) error {
	b.states.Clear(c.Sender().ID)
	return c.Send(text, mainMenu(), tele.ModeHTML)
}

func (b *Bot) handleStart(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if strings.HasPrefix(payload, entryPayloadPrefix) {
		return b.handleEntry(c, strings.TrimPrefix(payload, entryPayloadPrefix))
	}
	return b.showMainMenu(c,
		"👋 <b>Hi!</b> I collect group members and run giveaways.\n\n"+
			"1) «👥 Member list» — send a <b>group username</b>, I list everyone.\n"+
			"2) «🎁 Draw» — send a <b>group username</b> and a <b>winner count</b>; "+
			"afterwards you get a «✉️ Message the winners» button.\n"+
			"3) «📣 Post giveaway» — I publish an entry post and draw winners from the entrants.\n\n"+
			"ℹ️ Use a <b>group/discussion</b>, not a broadcast channel.")
}

// handleEntry registers a participation signal arriving through the
// announcement deep link.
func (b *Bot) handleEntry(c tele.Context, giveawayID string) error {
	sender := c.Sender()
	candidate := models.Candidate{
		UserID:    strconv.FormatInt(sender.ID, 10),
		Username:  sender.Username,
		FirstName: sender.FirstName,
		LastName:  sender.LastName,
		IsBot:     sender.IsBot,
	}

	count, err := b.svc.RegisterEntry(context.Background(), giveawayID, candidate)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("This giveaway was not found or has already finished.")
		}
		return c.Send("Failed to register your entry: " + err.Error())
	}
	return c.Send(fmt.Sprintf("🎟 You're in! %d entries so far.", count))
}

func (b *Bot) handleDrawCommand(c tele.Context) error {
	parts := strings.Fields(c.Text())
	if len(parts) < 3 {
		return c.Send("Usage: /draw <@channel|id> <winner count>")
	}
	channel := parts[1]
	winners, err := strconv.Atoi(parts[2])
	if err != nil || winners < 1 {
		winners = 1
	}
	if err := c.Send("Collecting members of " + channel + "..."); err != nil {
		return err
	}
	return b.runDraw(c, channel, winners)
}

func (b *Bot) runDraw(c tele.Context, channel string, winners int) error {
	result, err := b.svc.RunDirectDraw(context.Background(), channel, winners, b.excluded)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPool) {
			return c.Send("No eligible participants found.", mainMenu())
		}
		return c.Send("Draw failed: "+err.Error(), mainMenu())
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(btnMsgWinners.Text, btnMsgWinners.Unique, result.Token)))

	lines := tgutil.FormatNumberedList(result.Winners, 0)
	return c.Send("Winners:\n"+strings.Join(lines, "\n"), markup, tele.ModeHTML, tele.NoPreview)
}

func (b *Bot) handleWhois(c tele.Context) error {
	parts := strings.Fields(c.Text())
	if len(parts) < 2 {
		return c.Send("Usage: /whois <user_id|@username>")
	}
	arg := parts[1]
	if strings.HasPrefix(arg, "@") {
		link := tgutil.FormatUserLink(models.Candidate{Username: strings.TrimPrefix(arg, "@")})
		return c.Send("Profile: "+link, tele.ModeHTML, tele.NoPreview)
	}
	id := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, arg)
	if id == "" {
		return c.Send("Invalid id")
	}
	link := tgutil.FormatUserLink(models.Candidate{UserID: id})
	return c.Send("Profile: "+link, tele.ModeHTML, tele.NoPreview)
}

func (b *Bot) handleHistory(c tele.Context) error {
	parts := strings.Fields(c.Text())
	if len(parts) < 2 {
		return c.Send("Usage: /history <@channel> [limit]")
	}
	channel := parts[1]
	limit := 5
	if len(parts) > 2 {
		if n, err := strconv.Atoi(parts[2]); err == nil && n > 0 {
			limit = n
		}
	}

	records, total, err := b.svc.QueryHistory(context.Background(), channel, limit, 0)
	if err != nil {
		return c.Send("Failed to load history: " + err.Error())
	}
	if total == 0 {
		return c.Send("No completed giveaways for " + channel + " yet.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Completed giveaways for %s (%d total):\n", channel, total)
	for i, r := range records {
		fmt.Fprintf(&sb, "%d. %s — %d winner(s), finished %s\n",
			i+1, summarize(r.Text), len(r.Winners), r.CompletedAt.Format("2006-01-02 15:04"))
	}
	return c.Send(sb.String())
}

func summarize(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}

func (b *Bot) handleMenuMembers(c tele.Context) error {
	b.states.Set(c.Sender().ID, &State{Action: actionAskTarget, NextAction: nextMembersAll})
	return c.Send("Step 1. Send the group username. I will connect our client and load all members.", backToMenu())
}

func (b *Bot) handleMenuDraw(c tele.Context) error {
	b.states.Set(c.Sender().ID, &State{Action: actionAskTarget, NextAction: nextDraw})
	return c.Send("Step 1. Send the group username. I will connect the client and then ask for the winner count.", backToMenu())
}

func (b *Bot) handleMenuDrawPost(c tele.Context) error {
	if !b.enablePostGiveaway {
		return c.Send("Post giveaways are currently disabled.")
	}
	b.states.Set(c.Sender().ID, &State{Action: actionDrawPost, Step: 1})
	return c.Send("Step 1. Send the username of the channel/group to publish the giveaway post in.", backToMenu())
}

func (b *Bot) handleText(c tele.Context) error {
	userID := c.Sender().ID
	st, ok := b.states.Get(userID)
	if !ok {
		return nil
	}
	text := strings.TrimSpace(c.Text())

	switch st.Action {
	case actionAskTarget:
		return b.stepAskTarget(c, st, text)
	case actionDraw:
		return b.stepDraw(c, st, text)
	case actionDrawPost:
		return b.stepDrawPost(c, st, text)
	case actionSendMsg:
		return b.stepSendMessage(c, st, text)
	}
	return nil
}

// stepAskTarget verifies the privileged client can see the target group,
// joining it when necessary, then dispatches to the next action.
func (b *Bot) stepAskTarget(c tele.Context, st *State, target string) error {
	ctx := context.Background()
	if err := c.Send("Checking access..."); err != nil {
		return err
	}

	isMember, err := b.svc.ProxyIsMember(ctx, target)
	if err != nil {
		logger.Warn().Err(err).Str("target", target).Msg("membership check failed")
	}
	if err == nil && !isMember {
		if err := c.Send("Client is not in the group — joining..."); err != nil {
			return err
		}
		if err := b.svc.ProxyJoin(ctx, target); err != nil {
			b.states.Clear(c.Sender().ID)
			return c.Send("Failed to join "+target+": "+err.Error(), mainMenu())
		}
	}

	switch st.NextAction {
	case nextMembersAll:
		b.states.Clear(c.Sender().ID)
		return b.listAllMembers(c, target)
	case nextDraw:
		b.states.Set(c.Sender().ID, &State{Action: actionDraw, Step: 2, Channel: target})
		return c.Send("Step 2. Send the winner count (a number).")
	}
	return nil
}

func (b *Bot) listAllMembers(c tele.Context, channel string) error {
	if err := c.Send("Loading all members of " + channel + "..."); err != nil {
		return err
	}
	members, err := b.svc.FetchRoster(context.Background(), channel)
	if err != nil {
		return c.Send("Failed to load members: "+err.Error(), mainMenu())
	}
	if len(members) == 0 {
		return c.Send("No members found.", mainMenu())
	}
	for _, chunk := range tgutil.ChunkLines(tgutil.FormatNumberedList(members, 0)) {
		if err := c.Send(chunk, tele.ModeHTML, tele.NoPreview); err != nil {
			return err
		}
	}
	return b.showMainMenu(c, "Done.")
}

func (b *Bot) stepDraw(c tele.Context, st *State, text string) error {
	if st.Step != 2 {
		b.states.Clear(c.Sender().ID)
		return b.showMainMenu(c, "Main menu")
	}
	winners, err := strconv.Atoi(text)
	if err != nil || winners < 1 {
		winners = 1
	}
	b.states.Clear(c.Sender().ID)
	if err := c.Send("Collecting members of " + st.Channel + "..."); err != nil {
		return err
	}
	return b.runDraw(c, st.Channel, winners)
}

func (b *Bot) stepDrawPost(c tele.Context, st *State, text string) error {
	userID := c.Sender().ID
	switch st.Step {
	case 1:
		st.Channel = text
		st.Step = 2
		b.states.Set(userID, st)
		return c.Send("Step 2. Send the winner count (a number).")
	case 2:
		winners, err := strconv.Atoi(text)
		if err != nil || winners < 1 {
			winners = 1
		}
		st.WinnersCount = winners
		st.Step = 3
		b.states.Set(userID, st)
		return c.Send("Step 3. In how many minutes should the giveaway finish? Send 0 for manual finish.")
	case 3:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes < 0 {
			minutes = 0
		}
		st.Step = 4
		if minutes > 0 {
			st.Token = strconv.Itoa(minutes) // stash the delay until the final step
		}
		b.states.Set(userID, st)
		return c.Send("Step 4. Send the giveaway post text (it will be published with an entry button).")
	case 4:
		b.states.Clear(userID)
		return b.createPostGiveaway(c, st, text)
	}
	return nil
}

func (b *Bot) createPostGiveaway(c tele.Context, st *State, postText string) error {
	if err := c.Send("Publishing the post..."); err != nil {
		return err
	}

	in := service.CreateInput{
		Channel:      st.Channel,
		Text:         postText,
		WinnersCount: st.WinnersCount,
		CreatedBy:    c.Sender().ID,
	}
	if st.Token != "" {
		if minutes, err := strconv.Atoi(st.Token); err == nil && minutes > 0 {
			in.FinalizeAt = time.Now().Add(time.Duration(minutes) * time.Minute)
		}
	}

	id, err := b.svc.CreatePostGiveaway(context.Background(), in)
	if err != nil {
		return c.Send("Failed to publish the post: "+err.Error(), mainMenu())
	}

	finishToken, err := b.tokens.Put(id, ephemeral.DefaultTTL)
	if err != nil {
		return c.Send("Giveaway started, but the finish button could not be created: " + err.Error())
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(btnFinish.Text, btnFinish.Unique, finishToken)))

	msg := "Post published."
	if !in.FinalizeAt.IsZero() {
		msg += " The giveaway finishes automatically at " + in.FinalizeAt.Format("15:04:05") + "."
	}
	msg += " You can also finish it manually:"
	if err := c.Send(msg, markup); err != nil {
		return err
	}
	return b.showMainMenu(c, "Done. Giveaway is running.")
}

func (b *Bot) handleFinish(c tele.Context) error {
	token := c.Data()
	v, ok := b.tokens.Get(token)
	if !ok {
		return c.Send("This finish session has expired.")
	}
	giveawayID, ok := v.(string)
	if !ok {
		return c.Send("This finish session has expired.")
	}

	result, err := b.svc.Finalize(context.Background(), giveawayID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyFinished) {
			return c.Send("The giveaway has already finished.")
		}
		return c.Send("Failed to finish the giveaway: " + err.Error())
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(btnMsgWinners.Text, btnMsgWinners.Unique, result.Token)))
	lines := tgutil.FormatNumberedList(result.Winners, 0)
	return c.Send(
		fmt.Sprintf("Giveaway finished with %d entries.\nWinners:\n%s", result.EntryCount, strings.Join(lines, "\n")),
		markup, tele.ModeHTML, tele.NoPreview,
	)
}

func (b *Bot) handleMsgWinners(c tele.Context) error {
	token := c.Data()
	b.states.Set(c.Sender().ID, &State{Action: actionSendMsg, Step: 1, Token: token})
	return c.Send("Send the message text for the winners:", backToMenu())
}

func (b *Bot) stepSendMessage(c tele.Context, st *State, text string) error {
	b.states.Clear(c.Sender().ID)
	if err := c.Send("Sending messages to the winners..."); err != nil {
		return err
	}
	sent, total, err := b.svc.MessageWinners(context.Background(), st.Token, text)
	if err != nil {
		if errors.Is(err, service.ErrStaleToken) {
			return c.Send("The winner list has expired. Run the draw again.", mainMenu())
		}
		return c.Send("Delivery failed: "+err.Error(), mainMenu())
	}
	if err := c.Send(fmt.Sprintf("Delivered: %d/%d", sent, total)); err != nil {
		return err
	}
	return b.showMainMenu(c, "Done.")
}
