// Command watch tails realtime workflow events from a running server and
// prints them to stdout. Useful for checking that transitions reach
// subscribers without opening a browser.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/clinicore/hospital-platform/internal/realtime"
)

func main() {
	var (
		addr   = flag.String("addr", "ws://localhost:8080/ws", "WebSocket endpoint")
		token  = flag.String("token", os.Getenv("HOSPITAL_TOKEN"), "session token (or HOSPITAL_TOKEN)")
		topics = flag.String("topics", realtime.TopicPatients+","+realtime.TopicUsers, "comma-separated topics")
	)
	flag.Parse()

	if *token == "" {
		log.Fatal("a session token is required; log in and pass -token")
	}

	cfg, err := websocket.NewConfig(*addr, "http://localhost/")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.Header.Set("Authorization", "Bearer "+*token)

	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer conn.Close()

	subscribe := realtime.ClientMessage{
		Action: "subscribe",
		Topics: strings.Split(*topics, ","),
	}
	if err := websocket.JSON.Send(conn, subscribe); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	log.Printf("watching %s", *topics)

	for {
		var event realtime.Event
		if err := websocket.JSON.Receive(conn, &event); err != nil {
			log.Fatalf("receive: %v", err)
		}

		line, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Println(string(line))
	}
}
