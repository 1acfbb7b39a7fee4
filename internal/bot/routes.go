package bot

import (
	tg "walletbot/core/telegram"
	"walletbot/core/telegram/commands"
	"walletbot/core/telegram/router"
	"walletbot/core/telegram/state"
)

// BuildRegistry registers the bot's commands and callbacks.
func BuildRegistry(h *Handlers) *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Open the main menu",
	})
	reg.RegisterCommand("/language", commands.Command{
		Handler:     h.LanguageCmd,
		Description: "Change language",
		Aliases:     []string{"lang"},
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.Help,
		Description: "Support contacts",
	})

	_ = reg.RegisterCallback(cbLanguageMenu, h.LanguageMenu)
	_ = reg.RegisterCallback(cbSetLanguage, h.SetLanguage)
	_ = reg.RegisterCallback(cbWithdrawMenu, h.WithdrawMenu)
	_ = reg.RegisterCallback(cbWithdrawMethod, h.WithdrawMethod)
	_ = reg.RegisterCallback(cbWalletMenu, h.WalletMenu)
	_ = reg.RegisterCallback(cbWalletMethod, h.WalletMethod)

	return reg
}

// BuildRoutes assembles the update routes: commands, callbacks, and the
// free-text route that feeds active conversation modes.
func BuildRoutes(reg *tg.Registry, states state.Manager) []tg.Route {
	routes := router.TextRoutes(states, reg, router.TextOptions{})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{})...)
	return routes
}
