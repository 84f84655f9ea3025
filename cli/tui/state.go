package tui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pithecene-io/wearlink/types"
)

func renderAction(data any) string {
	var resp types.Response
	switch v := data.(type) {
	case *types.Response:
		if v == nil {
			return MutedStyle.Render("No response recorded.")
		}
		resp = *v
	case types.Response:
		resp = v
	default:
		return ErrorStyle.Render("Invalid data")
	}

	outcome := "failed"
	if resp.OK {
		outcome = "ok"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Last Response"))
	b.WriteString("\n\n")

	lines := []string{
		field("Action", string(resp.Action)),
		LabelStyle.Render("Outcome") + " " + StatusStyle(outcome).Render(outcome),
		field("Message", resp.Message),
		field("Request", resp.RequestID),
		field("Received", formatMillis(resp.Timestamp)),
	}
	b.WriteString(BoxStyle.Render(strings.Join(lines, "\n")))

	if len(resp.Data) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, resp.Data, "", "  "); err != nil {
			pretty.Reset()
			pretty.Write(resp.Data)
		}
		b.WriteString("\n\n")
		b.WriteString(TitleStyle.Render("Data"))
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(pretty.String()))
	}
	return b.String()
}
