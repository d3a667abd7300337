// Package main provides a simple CLI client for the discovery WebSocket stream.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

const doneSentinel = "[DONE]"

// Frame is one message of the discovery stream.
type Frame struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Error       string `json:"error"`
}

// Client is one discovery session.
type Client struct {
	conn *websocket.Conn
}

// NewClient connects to the discovery stream of a city.
func NewClient(base, city, lang string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/ws/discover/" + url.PathEscape(city))
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}
	if lang != "" {
		u.RawQuery = url.Values{"lang": {lang}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ReadFrames prints suggestions until [DONE], an error frame, or the server closes.
func (c *Client) ReadFrames() (int, error) {
	count := 0
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return count, nil
			}
			return count, fmt.Errorf("read: %w", err)
		}
		if string(data) == doneSentinel {
			return count, nil
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("Unmarshal error: %v", err)
			continue
		}
		if f.Error != "" {
			return count, fmt.Errorf("server error: %s", f.Error)
		}

		count++
		fmt.Printf("\n%d. %s\n   %s\n", count, f.Title, f.Description)
		if f.Image != "" {
			fmt.Printf("   %s\n", f.Image)
		}
	}
}

func discover(addr, city, lang string) {
	client, err := NewClient(addr, city, lang)
	if err != nil {
		log.Printf("Failed to connect: %v", err)
		return
	}
	defer client.Close()

	n, err := client.ReadFrames()
	if err != nil {
		log.Printf("Discovery failed after %d suggestions: %v", n, err)
		return
	}
	fmt.Printf("\n%d suggestions for %s\n", n, city)
}

func main() {
	addr := flag.String("addr", "ws://localhost:4000", "Guide API WebSocket base address")
	lang := flag.String("lang", "", "Suggestion language (es or en)")
	flag.Parse()

	log.SetFlags(log.Ltime)

	if city := strings.TrimSpace(strings.Join(flag.Args(), " ")); city != "" {
		discover(*addr, city, *lang)
		return
	}

	fmt.Println("Type a city and press Enter to discover it.")
	fmt.Println("Commands: /quit to exit")
	fmt.Println()

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Read user input
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}

			discover(*addr, input, *lang)
		}
	}
}
