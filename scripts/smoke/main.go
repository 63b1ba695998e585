package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "API base address")
	token := flag.String("token", "", "session token (see `wirechat-workspace token <handle>`)")
	channel := flag.Int64("channel", 1, "channel id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		log.Fatal("token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	call := func(method, path string, body, out interface{}) {
		var payload io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				log.Fatalf("encode: %v", err)
			}
			payload = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, *addr+path, payload)
		if err != nil {
			log.Fatalf("request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+*token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("%s %s: status %d: %s", method, path, resp.StatusCode, raw)
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				log.Fatalf("decode: %v", err)
			}
		}
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	call(http.MethodPost, fmt.Sprintf("/api/channels/%d/messages", *channel), map[string]string{"message": *text}, &sent)
	fmt.Printf("Sent message id=%d\n", sent.MessageID)

	var page struct {
		Messages []struct {
			MessageID int64  `json:"message_id"`
			UserID    int64  `json:"u_id"`
			Message   string `json:"message"`
			TimeSent  int64  `json:"time_sent"`
		} `json:"messages"`
		End int `json:"end"`
	}
	call(http.MethodGet, fmt.Sprintf("/api/channels/%d/messages?start=0", *channel), nil, &page)

	for _, m := range page.Messages {
		if m.MessageID == sent.MessageID {
			fmt.Printf("Read back: user=%d text=%q ts=%d\n", m.UserID, m.Message, m.TimeSent)
			return
		}
	}
	log.Fatalf("message %d not found in first page (%d messages, end=%d)", sent.MessageID, len(page.Messages), page.End)
}
