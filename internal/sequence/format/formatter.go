package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
	// <prefix><YYMM>-<seq>; the prefix is matched lazily so digits in an entity code stay in it.
	refRe = regexp.MustCompile(`^(.*?)(\d{4})-(\d+)$`)
)

const DefaultReferenceTemplate = "{PREFIX}{YY}{MM}-{SEQ6}"

// FormatReference renders a reference from a template, the document creation
// time and a counter value. Supported tokens: {PREFIX} {YYYY} {YY} {MM} {DD}
// {SEQ} and {SEQn} for an n-digit zero padded counter.
func FormatReference(template, prefix string, at time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("reference template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid reference sequence: %d", seq)
	}

	out := strings.ReplaceAll(template, "{PREFIX}", prefix)

	out = strings.ReplaceAll(out, "{YYYY}", at.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", at.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", at.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", at.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in reference format: %s", out)
	}
	return out, nil
}

// RefreshReference rewrites the YYMM segment of a <prefix><YYMM>-<seq>
// reference to the given creation date. References of any other shape are
// returned unchanged. RefreshReference(RefreshReference(r, t), t) == RefreshReference(r, t).
func RefreshReference(ref string, createdAt time.Time) string {
	if ref == "" || createdAt.IsZero() {
		return ref
	}
	match := refRe.FindStringSubmatch(ref)
	if match == nil {
		return ref
	}
	return match[1] + createdAt.UTC().Format("0601") + "-" + match[3]
}
