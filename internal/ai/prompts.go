package ai

import (
	"fmt"
	"strings"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

func analysisPrompt(req models.AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced football betting analyst writing for a tipster's followers.\n")

	if len(req.Legs) > 0 {
		fmt.Fprintf(&sb, "Write a short rationale (at most 120 words) for this %d-match accumulator:\n", len(req.Legs))
		for i, leg := range req.Legs {
			fmt.Fprintf(&sb, "%d. %s (%s): %s\n", i+1, leg.Teams, leg.League, leg.Prediction)
		}
	} else {
		sb.WriteString("Write a short rationale (at most 80 words) for this tip:\n")
		fmt.Fprintf(&sb, "Match: %s\nLeague: %s\nPrediction: %s\n", req.Teams, req.League, req.Prediction)
	}

	sb.WriteString("Mention recent form or head-to-head where relevant. Plain text, no markdown, no guarantees of winning.")
	return sb.String()
}

func resultPrompt(tip *models.Tip) string {
	var sb strings.Builder
	sb.WriteString("Determine whether the following football tip has been decided.\n")
	fmt.Fprintf(&sb, "Kickoff: %s\n", tip.KickoffTime.UTC().Format("2006-01-02 15:04 MST"))

	if tip.IsMulti() {
		sb.WriteString("Accumulator legs (the tip wins only if every leg wins):\n")
		for i, leg := range tip.Legs {
			fmt.Fprintf(&sb, "%d. %s (%s): %s\n", i+1, leg.Teams, leg.League, leg.Prediction)
		}
	} else {
		fmt.Fprintf(&sb, "Match: %s (%s)\nPrediction: %s\n", tip.Teams, tip.League, tip.Prediction)
	}

	sb.WriteString(`Respond with JSON only: {"status": "WON" | "LOST" | "VOID" | "PENDING", "score": "final score or empty", "confidence": number between 0 and 1, "reason": "one sentence"}.`)
	sb.WriteString(" Use PENDING if any match has not finished or you are unsure.")
	return sb.String()
}
