// Command client is a terminal probe for the chat backend: it logs in over
// REST, opens the websocket with the session cookie, subscribes to a room's
// topics, and relays stdin lines as chat messages.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"chatter-box/domain"
	"chatter-box/domain/event"
)

type Config struct {
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	WSURL     string `envconfig:"WS_URL" default:"ws://localhost:8080/ws"`
	Username  string `envconfig:"CHAT_USERNAME" required:"true"`
	Password  string `envconfig:"CHAT_PASSWORD" required:"true"`
	RoomID    int64  `envconfig:"CHAT_ROOM_ID" required:"true"`
}

func main() {
	if err := run(); err != nil {
		color.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	token, err := login(cfg)
	if err != nil {
		return err
	}
	color.Green.Printf("Logged in as %s\n", cfg.Username)

	header := http.Header{}
	header.Set("Cookie", "jwt="+token)
	conn, resp, err := websocket.DefaultDialer.Dial(cfg.WSURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (%s): %w", resp.Status, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	roomID := domain.RoomID(cfg.RoomID)
	for _, topic := range event.RoomTopics(roomID) {
		if err := send(conn, "subscribe", map[string]string{"topic": topic}); err != nil {
			return err
		}
	}

	go receive(conn)

	color.Cyan.Printf("Joined room %d, type to chat\n", cfg.RoomID)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := send(conn, "chat.sendMessage", map[string]any{
			"roomId":  cfg.RoomID,
			"content": line,
		}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func login(cfg Config) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": cfg.Username,
		"password": cfg.Password,
	})
	resp, err := http.Post(cfg.ServerURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected: %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	return out.Token, nil
}

func send(conn *websocket.Conn, destination string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	frame := map[string]json.RawMessage{
		"destination": json.RawMessage(strconv.Quote(destination)),
		"body":        raw,
	}
	return conn.WriteJSON(frame)
}

func receive(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			color.Red.Printf("Connection lost: %v\n", err)
			os.Exit(1)
		}

		var incoming struct {
			Topic   string          `json:"topic"`
			Payload json.RawMessage `json:"payload"`
			Receipt string          `json:"receipt"`
			Error   *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &incoming); err != nil {
			color.Yellow.Printf("Unreadable frame: %s\n", raw)
			continue
		}

		switch {
		case incoming.Error != nil:
			color.Red.Printf("[%s] %s\n", incoming.Error.Code, incoming.Error.Message)
		case incoming.Receipt != "":
			color.Gray.Printf("(%s)\n", incoming.Receipt)
		default:
			printBroadcast(incoming.Topic, incoming.Payload)
		}
	}
}

func printBroadcast(topic string, payload json.RawMessage) {
	_, kind, err := event.ParseTopic(topic)
	if err != nil {
		color.Yellow.Printf("%s %s\n", topic, payload)
		return
	}

	switch kind {
	case event.KindDelete:
		color.Magenta.Printf("message %s deleted\n", payload)
	default:
		var view domain.MessageView
		if err := json.Unmarshal(payload, &view); err != nil {
			color.Yellow.Printf("%s %s\n", topic, payload)
			return
		}
		when := view.CreatedAt.Local().Format(time.Kitchen)
		prefix := ""
		if kind == event.KindEdit {
			prefix = "(edited) "
		}
		color.Printf("<gray>%s</> <green>%s</>: %s%s\n", when, view.Sender, prefix, view.Content)
	}
}
