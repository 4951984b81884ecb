package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shiv-telegram/api"
	"shiv-telegram/config"
	"shiv-telegram/models"
	"shiv-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// checkout conversation stages
const (
	draftName    = "name"
	draftPhone   = "phone"
	draftAddress = "address"
	draftConfirm = "confirm"
)

// checkoutDraft is the customer-details conversation in progress.
type checkoutDraft struct {
	Stage   string
	Name    string
	PhoneNo string
	Address string
}

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	backend  *api.Client
	cart     *services.CartStore
	identity *services.Identity
	checkout *services.Checkout
	logger   *zap.Logger

	// Menu items cached for the lifetime of a menu view, keyed by user.
	menuCache   map[int64]map[string]models.MenuItem
	menuCacheMu sync.RWMutex

	drafts   map[int64]*checkoutDraft
	draftsMu sync.RWMutex
}

func New(cfg *config.Config, backend *api.Client, cart *services.CartStore, identity *services.Identity, checkout *services.Checkout, logger *zap.Logger) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:       tg,
		cfg:       cfg,
		backend:   backend,
		cart:      cart,
		identity:  identity,
		checkout:  checkout,
		logger:    logger,
		menuCache: make(map[int64]map[string]models.MenuItem),
		drafts:    make(map[int64]*checkoutDraft),
	}, nil
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Menu"},
			{Command: "cart", Description: "Your cart"},
			{Command: "orders", Description: "Order history"},
			{Command: "find", Description: "Search the menu"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

func (b *Bot) Start() {
	_ = b.setBotCommands()
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		msg := update.Message
		userID := msg.From.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case text == "/start" || text == "/menu":
			b.handleStart(msg.Chat.ID, userID)
		case text == "/cart":
			b.sendCart(msg.Chat.ID, userID, 0)
		case text == "/orders":
			b.handleOrders(msg.Chat.ID, userID)
		case strings.HasPrefix(text, "/find"):
			b.handleFind(msg.Chat.ID, userID, strings.TrimSpace(strings.TrimPrefix(text, "/find")))
		case msg.Contact != nil:
			b.handleDraftInput(msg.Chat.ID, userID, msg.Contact.PhoneNumber)
		case text != "":
			b.handleDraftInput(msg.Chat.ID, userID, text)
		}
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleStart ensures the anonymous identity exists (registration runs in
// the background) and shows the menu.
func (b *Bot) handleStart(chatID int64, userID int64) {
	ctx := context.Background()
	if _, err := b.identity.Ensure(ctx, userID); err != nil {
		b.logger.Warn("ensure identity", zap.Int64("user_id", userID), zap.Error(err))
	}
	b.sendHome(chatID, userID)
}

// sendHome is the home/menu screen: kitchen gate, menu listing, cart badge.
func (b *Bot) sendHome(chatID int64, userID int64) {
	ctx := context.Background()

	// A kitchen-status failure degrades to "open" so a flaky endpoint
	// never blocks browsing.
	status, err := b.backend.FetchKitchenStatus(ctx)
	if err != nil {
		b.logger.Warn("kitchen status", zap.Error(err))
	} else if !status.Open {
		b.send(chatID, "😴 We're currently closed. Please come back later.")
		return
	}

	items, err := b.backend.FetchMenu(ctx)
	if err != nil {
		b.send(chatID, "Could not load the menu: "+err.Error())
		return
	}
	b.cacheMenu(userID, items)

	lines, err := b.cart.Load(ctx, userID)
	if err != nil {
		b.logger.Warn("load cart", zap.Int64("user_id", userID), zap.Error(err))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		if !item.Available {
			continue
		}
		label := fmt.Sprintf("%s %s — %s", vegMark(item), item.Name, services.FormatAmount(item.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "add:"+item.ID),
		))
	}
	cartLabel := "🛒 Cart"
	if n := services.TotalCount(lines); n > 0 {
		cartLabel = fmt.Sprintf("🛒 Cart (%d)", n)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(cartLabel, "cart"),
		tgbotapi.NewInlineKeyboardButtonData("📜 My Orders", "orders"),
	))

	b.sendWithInline(chatID, "🍽 Shiv Restaurant — Menu\n\nTap a dish to add it to your cart.", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func vegMark(item models.MenuItem) string {
	if item.NonVeg {
		return "🔴"
	}
	return "🟢"
}

func (b *Bot) cacheMenu(userID int64, items []models.MenuItem) {
	byID := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	b.menuCacheMu.Lock()
	b.menuCache[userID] = byID
	b.menuCacheMu.Unlock()
}

func (b *Bot) cachedItem(userID int64, itemID string) (models.MenuItem, bool) {
	b.menuCacheMu.RLock()
	item, ok := b.menuCache[userID][itemID]
	b.menuCacheMu.RUnlock()
	return item, ok
}

// handleFind filters the cached menu by name substring.
func (b *Bot) handleFind(chatID int64, userID int64, query string) {
	if query == "" {
		b.send(chatID, "Usage: /find <dish name>")
		return
	}
	b.menuCacheMu.RLock()
	cached := b.menuCache[userID]
	b.menuCacheMu.RUnlock()
	if cached == nil {
		items, err := b.backend.FetchMenu(context.Background())
		if err != nil {
			b.send(chatID, "Could not load the menu: "+err.Error())
			return
		}
		b.cacheMenu(userID, items)
		b.menuCacheMu.RLock()
		cached = b.menuCache[userID]
		b.menuCacheMu.RUnlock()
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range cached {
		if !item.Available || !strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) {
			continue
		}
		label := fmt.Sprintf("%s %s — %s", vegMark(item), item.Name, services.FormatAmount(item.Price))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "add:"+item.ID),
		))
	}
	if len(rows) == 0 {
		b.send(chatID, "Nothing on the menu matches \""+query+"\".")
		return
	}
	b.sendWithInline(chatID, "🔎 Search results:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	data := cq.Data

	b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	switch {
	case data == "menu":
		b.sendHome(chatID, userID)
	case strings.HasPrefix(data, "add:"):
		b.addToCart(chatID, userID, strings.TrimPrefix(data, "add:"))
	case data == "cart":
		b.sendCart(chatID, userID, 0)
	case strings.HasPrefix(data, "inc:"):
		b.changeLine(chatID, userID, cq.Message.MessageID, strings.TrimPrefix(data, "inc:"), +1)
	case strings.HasPrefix(data, "dec:"):
		b.changeLine(chatID, userID, cq.Message.MessageID, strings.TrimPrefix(data, "dec:"), -1)
	case strings.HasPrefix(data, "rm:"):
		b.removeLine(chatID, userID, cq.Message.MessageID, strings.TrimPrefix(data, "rm:"))
	case data == "cart_clear":
		if err := b.cart.Clear(context.Background(), userID); err != nil {
			b.logger.Warn("clear cart", zap.Int64("user_id", userID), zap.Error(err))
		}
		b.sendCart(chatID, userID, cq.Message.MessageID)
	case data == "checkout":
		b.startCheckout(chatID, userID)
	case data == "order_confirm":
		b.confirmOrder(chatID, userID)
	case data == "order_cancel":
		b.clearDraft(userID)
		b.send(chatID, "Order not placed.")
		b.sendCart(chatID, userID, 0)
	case data == "orders":
		b.handleOrders(chatID, userID)
	}
}

func (b *Bot) addToCart(chatID int64, userID int64, itemID string) {
	ctx := context.Background()
	item, ok := b.cachedItem(userID, itemID)
	if !ok {
		// Menu view expired (e.g. bot restarted): refresh the cache.
		items, err := b.backend.FetchMenu(ctx)
		if err != nil {
			b.send(chatID, "Could not load the menu: "+err.Error())
			return
		}
		b.cacheMenu(userID, items)
		if item, ok = b.cachedItem(userID, itemID); !ok {
			b.send(chatID, "That dish is no longer on the menu.")
			return
		}
	}

	lines, err := b.cart.AddOrIncrease(ctx, userID, item, 1)
	if err != nil {
		b.send(chatID, "Could not update your cart: "+err.Error())
		return
	}
	b.send(chatID, fmt.Sprintf("✅ %s added. Cart: %d item(s), %s. Open /cart to check out.",
		item.Name, services.TotalCount(lines), services.FormatAmount(services.TotalCost(lines))))
}

// sendCart renders the cart screen. When editMsgID is non-zero the existing
// message is edited in place instead of sending a new one.
func (b *Bot) sendCart(chatID int64, userID int64, editMsgID int) {
	ctx := context.Background()
	lines, err := b.cart.Load(ctx, userID)
	if err != nil {
		b.send(chatID, "Could not load your cart: "+err.Error())
		return
	}

	var text string
	var rows [][]tgbotapi.InlineKeyboardButton
	if len(lines) == 0 {
		text = "🛒 Your cart is empty."
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽 Menu", "menu"),
		))
	} else {
		text = "🛒 Cart\n\n"
		for _, l := range lines {
			lineTotal := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			text += fmt.Sprintf("• %s × %d — %s\n", l.Name, l.Quantity, services.FormatAmount(lineTotal))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➖", "dec:"+l.ItemID),
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s ×%d", l.Name, l.Quantity), "cart"),
				tgbotapi.NewInlineKeyboardButtonData("➕", "inc:"+l.ItemID),
				tgbotapi.NewInlineKeyboardButtonData("✖", "rm:"+l.ItemID),
			))
		}
		text += fmt.Sprintf("\nTotal: %s\nPayment: pay on delivery (cash/UPI).", services.FormatAmount(services.TotalCost(lines)))
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Empty Cart", "cart_clear"),
				tgbotapi.NewInlineKeyboardButtonData("✅ Place Order", "checkout"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu"),
			),
		)
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	if editMsgID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editMsgID, text)
		edit.ReplyMarkup = &kb
		if _, err := b.api.Send(edit); err != nil {
			if !strings.Contains(err.Error(), "not modified") {
				b.logger.Warn("edit cart", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
		return
	}
	b.sendWithInline(chatID, text, kb)
}

func (b *Bot) changeLine(chatID int64, userID int64, msgID int, itemID string, delta int) {
	ctx := context.Background()
	var err error
	if delta > 0 {
		lines, loadErr := b.cart.Load(ctx, userID)
		if loadErr != nil {
			b.send(chatID, "Could not update your cart: "+loadErr.Error())
			return
		}
		for _, l := range lines {
			if l.ItemID == itemID {
				_, err = b.cart.AddOrIncrease(ctx, userID, models.MenuItem{ID: l.ItemID, Name: l.Name, Price: l.Price}, delta)
				break
			}
		}
	} else {
		_, err = b.cart.Decrease(ctx, userID, itemID)
	}
	if err != nil {
		b.send(chatID, "Could not update your cart: "+err.Error())
		return
	}
	b.sendCart(chatID, userID, msgID)
}

func (b *Bot) removeLine(chatID int64, userID int64, msgID int, itemID string) {
	if _, err := b.cart.Remove(context.Background(), userID, itemID); err != nil {
		b.send(chatID, "Could not update your cart: "+err.Error())
		return
	}
	b.sendCart(chatID, userID, msgID)
}

// startCheckout begins the customer-details conversation.
func (b *Bot) startCheckout(chatID int64, userID int64) {
	lines, err := b.cart.Load(context.Background(), userID)
	if err != nil {
		b.send(chatID, "Could not load your cart: "+err.Error())
		return
	}
	if len(lines) == 0 {
		b.send(chatID, "🛒 Your cart is empty.")
		return
	}
	b.draftsMu.Lock()
	b.drafts[userID] = &checkoutDraft{Stage: draftName}
	b.draftsMu.Unlock()
	b.send(chatID, "What's your full name?")
}

func (b *Bot) getDraft(userID int64) *checkoutDraft {
	b.draftsMu.RLock()
	defer b.draftsMu.RUnlock()
	return b.drafts[userID]
}

func (b *Bot) clearDraft(userID int64) {
	b.draftsMu.Lock()
	delete(b.drafts, userID)
	b.draftsMu.Unlock()
}

// handleDraftInput feeds a plain message (or shared contact) into the
// checkout conversation, if one is running.
func (b *Bot) handleDraftInput(chatID int64, userID int64, input string) {
	draft := b.getDraft(userID)
	if draft == nil {
		return
	}
	switch draft.Stage {
	case draftName:
		draft.Name = input
		draft.Stage = draftPhone
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact("📞 Share phone number"),
			),
		)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		msg := tgbotapi.NewMessage(chatID, "Your phone number? (share or type it)")
		msg.ReplyMarkup = kb
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("send", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	case draftPhone:
		draft.PhoneNo = input
		draft.Stage = draftAddress
		msg := tgbotapi.NewMessage(chatID, "Delivery address?")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("send", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	case draftAddress:
		draft.Address = input
		b.requestConfirmation(chatID, userID, draft)
	}
}

// requestConfirmation is stage one of submission: validate, then show the
// confirmation dialog. Nothing is sent to the backend yet.
func (b *Bot) requestConfirmation(chatID int64, userID int64, draft *checkoutDraft) {
	info := services.CustomerInfo{Name: draft.Name, PhoneNo: draft.PhoneNo, Address: draft.Address}
	if err := b.checkout.RequestSubmit(info); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			// Send the customer back to the missing field.
			switch verr.Field {
			case "name":
				draft.Stage = draftName
				b.send(chatID, "Please fill in your name.")
			case "phone number":
				draft.Stage = draftPhone
				b.send(chatID, "Please fill in your phone number.")
			default:
				draft.Stage = draftAddress
				b.send(chatID, "Please fill in your address.")
			}
			return
		}
		b.send(chatID, err.Error())
		return
	}

	lines, err := b.cart.Load(context.Background(), userID)
	if err != nil {
		b.send(chatID, "Could not load your cart: "+err.Error())
		return
	}
	draft.Stage = draftConfirm

	text := "Confirm your order?\n\n"
	for _, l := range lines {
		text += fmt.Sprintf("• %s × %d\n", l.Name, l.Quantity)
	}
	text += fmt.Sprintf("\nTotal: %s\nName: %s\nPhone: %s\nAddress: %s",
		services.FormatAmount(services.TotalCost(lines)), draft.Name, draft.PhoneNo, draft.Address)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "order_cancel"),
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm Order", "order_confirm"),
		),
	)
	b.sendWithInline(chatID, text, kb)
}

// confirmOrder is stage two: place the order. On failure the cart is left
// untouched and the customer can confirm again.
func (b *Bot) confirmOrder(chatID int64, userID int64) {
	draft := b.getDraft(userID)
	if draft == nil || draft.Stage != draftConfirm {
		b.send(chatID, "Nothing to confirm. Open /cart to place an order.")
		return
	}
	info := services.CustomerInfo{Name: draft.Name, PhoneNo: draft.PhoneNo, Address: draft.Address}

	order, err := b.checkout.ConfirmSubmit(context.Background(), userID, info)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubmitInFlight):
			b.send(chatID, "Placing your order, one moment…")
		case errors.Is(err, services.ErrEmptyCart):
			b.clearDraft(userID)
			b.send(chatID, "🛒 Your cart is empty.")
		default:
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Cancel", "order_cancel"),
					tgbotapi.NewInlineKeyboardButtonData("🔁 Try Again", "order_confirm"),
				),
			)
			b.sendWithInline(chatID, "Could not place your order: "+err.Error(), kb)
		}
		return
	}

	b.clearDraft(userID)
	text := "✅ Thanks for ordering!\n\nWe have received your order"
	if order != nil && order.ID != "" {
		text += " (#" + order.ID + ")"
	}
	text += ". It will be delivered soon."
	b.send(chatID, text)

	// Auto-return to the menu, like the web client's confirmation redirect.
	delay := time.Duration(b.cfg.UI.ConfirmRedirectSeconds) * time.Second
	time.AfterFunc(delay, func() {
		b.sendHome(chatID, userID)
	})
}

// handleOrders shows order history for the stored identity. Without an
// identity token no fetch is attempted.
func (b *Bot) handleOrders(chatID int64, userID int64) {
	ctx := context.Background()
	uid, ok, err := b.identity.Lookup(ctx, userID)
	if err != nil {
		b.logger.Warn("lookup identity", zap.Int64("user_id", userID), zap.Error(err))
	}
	if !ok {
		b.send(chatID, "No orders found. You haven't placed any orders yet. Use /start to browse the menu.")
		return
	}

	orders, err := b.backend.FetchOrderHistory(ctx, uid)
	if err != nil {
		b.send(chatID, "Could not load your order history: "+err.Error())
		return
	}
	if len(orders) == 0 {
		b.send(chatID, "No orders found. You haven't placed any orders yet. Use /start to browse the menu.")
		return
	}
	// Newest first.
	for i := len(orders) - 1; i >= 0; i-- {
		b.send(chatID, services.BuildHistoryCard(orders[i]))
	}
}
