// ABOUTME: CLI commands for inspecting published posts.
// ABOUTME: Provides show and list subcommands backed by the post store.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/postgate/internal/bot"
	"github.com/2389-research/postgate/internal/storage"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect published posts",
	Long:  "Look up posts by ID and list recent posts.",
}

var postsShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show a post",
	Long:  "Print a post's file ID, caption, and start deep link.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsShow,
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent posts",
	Long:  "List the most recently published posts, newest first.",
	RunE:  runPostsList,
}

var postsListLimit int

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsShowCmd)
	postsCmd.AddCommand(postsListCmd)

	postsListCmd.Flags().IntVar(&postsListLimit, "limit", 10, "Maximum number of posts to show")
}

func runPostsShow(cmd *cobra.Command, args []string) error {
	post, err := globalStore.GetPost(cmd.Context(), args[0])
	if errors.Is(err, storage.ErrPostNotFound) {
		return fmt.Errorf("post %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	fmt.Printf("Post ID: %s\n", post.PostID)
	fmt.Printf("File ID: %s\n", post.FileID)
	if globalConfig.Telegram.BotUsername != "" {
		fmt.Printf("Link:    %s\n", bot.DeepLink(globalConfig.Telegram.BotUsername, post.PostID))
	}
	fmt.Printf("\n%s\n", post.Caption)
	return nil
}

func runPostsList(cmd *cobra.Command, args []string) error {
	posts, err := globalStore.ListPosts(cmd.Context(), postsListLimit)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return nil
	}

	for _, post := range posts {
		caption, _, _ := strings.Cut(post.Caption, "\n")
		fmt.Printf("%s  %s\n", post.PostID, caption)
	}
	return nil
}
