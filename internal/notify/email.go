package notify

import (
	"fmt"
	"html"
	"strings"

	"trilog/internal/mail"
	"trilog/internal/revision"
	"trilog/internal/summary"
	"trilog/internal/timeutil"
)

const promptSnippetLen = 140

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func appLink(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// BuildRevisionEmail renders the due-revision notification.
func BuildRevisionEmail(userName string, sched revision.Schedule, baseURL string) mail.Message {
	snippet := sched.OriginalText
	truncated := false
	if len(snippet) > promptSnippetLen {
		snippet = snippet[:promptSnippetLen]
		truncated = true
	}
	ellipsis := ""
	if truncated {
		ellipsis = "…"
	}

	scheduledDate := timeutil.YMD(sched.ScheduledAt.UTC())
	link := appLink(baseURL, "/revisions")
	name := greetingName(userName)

	subject := fmt.Sprintf("TriLog Revision Due (Day %d)", sched.OffsetDays)

	text := strings.Join([]string{
		fmt.Sprintf("Hi %s,", name),
		"",
		fmt.Sprintf("You have a TriLog revision due (Day %d).", sched.OffsetDays),
		fmt.Sprintf("Scheduled: %s", scheduledDate),
		"",
		fmt.Sprintf("Prompt: %s%s", snippet, ellipsis),
		"",
		fmt.Sprintf("Open TriLog to complete it: %s", link),
		"",
		"— TriLog",
	}, "\n")

	htmlEllipsis := ""
	if truncated {
		htmlEllipsis = "&hellip;"
	}
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; line-height: 1.5;">`)
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p><strong>You have a TriLog revision due (Day %d).</strong></p>", sched.OffsetDays)
	fmt.Fprintf(&b, "<p>Scheduled: %s</p>", scheduledDate)
	b.WriteString(`<p style="margin-top: 12px;">Prompt:</p>`)
	fmt.Fprintf(&b, `<blockquote style="border-left: 4px solid #e5e7eb; margin: 8px 0; padding: 8px 12px; color: #111827;">%s%s</blockquote>`,
		html.EscapeString(snippet), htmlEllipsis)
	fmt.Fprintf(&b, `<p><a href="%s" style="display: inline-block; padding: 10px 14px; background: #6366f1; color: #fff; text-decoration: none; border-radius: 8px;">Open TriLog</a></p>`, link)
	b.WriteString(`<p style="color:#6b7280; font-size: 12px;">— TriLog</p></div>`)

	return mail.Message{Subject: subject, Text: text, HTML: b.String()}
}

// BuildWeeklyEmail renders the weekly review digest, including the AI 7-day
// revision plan when one was produced.
func BuildWeeklyEmail(userName string, wk summary.Weekly, revisionPlan []string, baseURL string) mail.Message {
	title := "Last 7 days"
	if wk.WeekStartDate != "" && wk.WeekEndDate != "" {
		title = fmt.Sprintf("%s → %s", wk.WeekStartDate, wk.WeekEndDate)
	}

	link := appLink(baseURL, "/summaries")
	name := greetingName(userName)
	narrative := strings.TrimSpace(wk.Narrative)

	learnings := []string(wk.KeyLearnings)
	if len(learnings) > 6 {
		learnings = learnings[:6]
	}
	plan := revisionPlan
	if len(plan) > 7 {
		plan = plan[:7]
	}

	subject := fmt.Sprintf("TriLog Weekly Review (%s)", title)

	lines := []string{
		fmt.Sprintf("Hi %s,", name),
		"",
		fmt.Sprintf("Here is your TriLog weekly review (%s).", title),
	}
	if narrative != "" {
		lines = append(lines, "", "Summary: "+narrative)
	}
	if len(learnings) > 0 {
		lines = append(lines, "", "Key learnings:")
		for _, k := range learnings {
			lines = append(lines, "- "+k)
		}
	}
	if len(plan) > 0 {
		lines = append(lines, "", "7-day revision plan:")
		for i, p := range plan {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, p))
		}
	}
	lines = append(lines, "", "Open TriLog: "+link, "", "— TriLog")
	text := strings.Join(lines, "\n")

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; line-height: 1.5;">`)
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p><strong>Here is your TriLog weekly review (%s).</strong></p>", html.EscapeString(title))
	if narrative != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(narrative))
	}
	if len(learnings) > 0 {
		b.WriteString(`<p style="margin-top: 12px;"><strong>Key learnings</strong></p><ul>`)
		for _, k := range learnings {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(k))
		}
		b.WriteString("</ul>")
	}
	if len(plan) > 0 {
		b.WriteString(`<p style="margin-top: 12px;"><strong>7-day revision plan</strong></p><ol>`)
		for _, p := range plan {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(p))
		}
		b.WriteString("</ol>")
	}
	fmt.Fprintf(&b, `<p style="margin-top: 14px;"><a href="%s" style="display: inline-block; padding: 10px 14px; background: #6366f1; color: #fff; text-decoration: none; border-radius: 8px;">Open TriLog</a></p>`, link)
	b.WriteString(`<p style="color:#6b7280; font-size: 12px;">— TriLog</p></div>`)

	return mail.Message{Subject: subject, Text: text, HTML: b.String()}
}
