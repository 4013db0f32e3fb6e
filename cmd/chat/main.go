package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"projectchat/internal/backend"
	"projectchat/internal/chat"
	"projectchat/internal/config"
	"projectchat/internal/models"
	"projectchat/internal/transport"
	"projectchat/pkg/logger"
)

// Minimal terminal front end for the chat core: fetches the assignment
// list, seeds history, then mirrors the live timeline of the focused
// room. Commands: /focus <room>, /rooms, /quit; anything else is sent to
// the focused room.
func main() {
	cfg := config.Load()

	token := os.Getenv("CHAT_TOKEN")
	if token == "" {
		logger.Fatal("CHAT_TOKEN environment variable is required")
	}

	self, err := backend.Identity(token)
	if err != nil {
		logger.Fatal("Failed to read identity from token: %v", err)
	}

	ctx := context.Background()
	api := backend.New(cfg.Chat.APIURL, token)
	assignments, err := api.Assignments(ctx)
	if err != nil {
		logger.Fatal("Failed to fetch assignments: %v", err)
	}
	if len(assignments) == 0 {
		logger.Fatal("No project assignments for user %s", self.ID)
	}

	client := chat.New(cfg.Chat, self.ID)
	defer client.Close()

	client.OnMessage(func(msg models.Message) {
		fmt.Printf("[%s] %s (%s): %s\n",
			msg.CreatedAt.Format("15:04"), msg.Sender.Name, msg.RoomID, msg.Body)
	})
	client.OnStateChange(func(st transport.State) {
		switch st {
		case transport.StateReconnecting:
			fmt.Println("-- connection lost, reconnecting...")
		case transport.StateConnected:
			fmt.Println("-- connected")
		case transport.StateDisconnected:
			fmt.Println("-- disconnected; refresh your token and restart")
		}
	})

	if err := client.Connect(ctx, token); err != nil {
		logger.Fatal("Connect failed: %v", err)
	}

	client.SetRoomSet(assignments)
	for _, a := range assignments {
		history, err := api.RoomHistory(ctx, a.RoomID, cfg.Chat.HistoryPageSize)
		if err != nil {
			logger.Error("History fetch for %s failed: %v", a.RoomID, err)
			continue
		}
		client.SeedHistory(a.RoomID, history)
	}
	client.Focus(assignments[0].RoomID)
	fmt.Printf("Focused on %s (%s)\n", assignments[0].ProjectName, assignments[0].RoomID)

	runInputLoop(client, assignments)
}

func runInputLoop(client *chat.Client, assignments []models.Assignment) {
	focused := assignments[0].RoomID
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return

		case line == "/rooms":
			unreadCounts := client.Snapshot()
			for _, a := range assignments {
				marker := " "
				if a.RoomID == focused {
					marker = "*"
				}
				fmt.Printf("%s %s (%s) unread=%d\n", marker, a.ProjectName, a.RoomID, unreadCounts[a.RoomID])
			}

		case strings.HasPrefix(line, "/focus "):
			roomID := strings.TrimSpace(strings.TrimPrefix(line, "/focus "))
			client.Focus(roomID)
			focused = roomID
			fmt.Printf("Focused on %s\n", roomID)

		case line != "":
			if err := client.SendMessage(focused, line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
	}
}
