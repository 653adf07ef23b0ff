// ABOUTME: Cobra command for interactive bot configuration.
// ABOUTME: Launches a bubbletea TUI wizard and saves the result to the config file.
package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/postgate/internal/config"
	"github.com/2389-research/postgate/internal/models"
	"github.com/2389-research/postgate/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the bot",
	Long:  "Interactive wizard to set the bot token, admin, MongoDB URI, and channels.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	usernames := make([]string, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		usernames[i] = ch.Username
	}

	model := tui.NewSetupModel(tui.SetupValues{
		BotToken:         cfg.Telegram.BotToken,
		BotUsername:      cfg.Telegram.BotUsername,
		AdminChatID:      cfg.Telegram.AdminChatID,
		MongoURI:         cfg.Mongo.URI,
		Channels:         strings.Join(usernames, ", "),
		InstagramProfile: cfg.InstagramProfile,
	})

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	values := final.Result()
	cfg.Telegram.BotToken = values.BotToken
	cfg.Telegram.BotUsername = values.BotUsername
	cfg.Telegram.AdminChatID = values.AdminChatID
	cfg.Mongo.URI = values.MongoURI
	cfg.Channels = mergeChannels(cfg.Channels, config.ParseChannels(values.Channels, ""))
	cfg.InstagramProfile = values.InstagramProfile

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}

// mergeChannels keeps display names already configured for the same handle.
func mergeChannels(existing, entered []models.Channel) []models.Channel {
	names := make(map[string]string, len(existing))
	for _, ch := range existing {
		names[ch.Handle()] = ch.Name
	}
	for i, ch := range entered {
		if name, ok := names[ch.Handle()]; ok && name != "" {
			entered[i].Name = name
		}
	}
	return entered
}
