package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Simplified DTOs for the script
type turnRequest struct {
	SessionId  string `json:"session_id,omitempty"`
	ProfileId  *int64 `json:"profile_id,omitempty"`
	Message    string `json:"message"`
	EndSession bool   `json:"end_session,omitempty"`
}

type turnResponse struct {
	Data struct {
		SessionId  string   `json:"session_id"`
		TurnCount  int      `json:"turn_count"`
		Answer     string   `json:"answer"`
		EndSession bool     `json:"end_session"`
		EndReasons []string `json:"end_reasons"`
		UsedRAG    bool     `json:"used_rag"`
		Keywords   []string `json:"keywords"`
		Snippets   []struct {
			DocId string   `json:"doc_id"`
			Title string   `json:"title"`
			Score *float64 `json:"score"`
		} `json:"snippets"`
		Degraded bool `json:"degraded"`
	} `json:"data"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api/chat/v1", "chat API base URL")
	profileId := flag.Int64("profile", 0, "profile id to attach (0 = anonymous)")
	flag.Parse()

	title := color.New(color.FgCyan, color.Bold)
	userC := color.New(color.FgGreen, color.Bold)
	botC := color.New(color.FgWhite)
	metaC := color.New(color.FgYellow)
	errC := color.New(color.FgRed, color.Bold)

	title.Println("=== Welfare Chat Simulation Client ===")
	fmt.Println("Type a message, '/end' to close the session, '/quit' to exit.")

	var pid *int64
	if *profileId > 0 {
		pid = profileId
		metaC.Printf("Attached profile: %d\n", *profileId)
	}

	sessionId := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		userC.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			break
		}

		req := turnRequest{
			SessionId: sessionId,
			ProfileId: pid,
			Message:   text,
		}
		if text == "/end" {
			req.Message = "상담을 종료할게요"
			req.EndSession = true
		}

		start := time.Now()
		res, err := sendTurn(*baseURL, &req)
		elapsed := time.Since(start)
		if err != nil {
			errC.Printf("Error: %v\n", err)
			continue
		}

		sessionId = res.Data.SessionId
		botC.Printf("bot> %s\n", res.Data.Answer)
		metaC.Printf("     [turn=%d rag=%v degraded=%v keywords=%v %.1fs]\n",
			res.Data.TurnCount, res.Data.UsedRAG, res.Data.Degraded, res.Data.Keywords, elapsed.Seconds())
		for _, sn := range res.Data.Snippets {
			score := "-"
			if sn.Score != nil {
				score = fmt.Sprintf("%.3f", *sn.Score)
			}
			metaC.Printf("     doc %s (%s) %s\n", sn.DocId, score, sn.Title)
		}
		if res.Data.EndSession {
			metaC.Printf("     session ended: %v\n", res.Data.EndReasons)
			sessionId = ""
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin: %v", err)
	}
}

func sendTurn(baseURL string, req *turnRequest) (*turnResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpRes, err := http.Post(baseURL+"/turn", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer httpRes.Body.Close()

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, err
	}
	if httpRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", httpRes.StatusCode, string(data))
	}

	var res turnResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
