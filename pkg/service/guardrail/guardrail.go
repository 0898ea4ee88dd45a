package guardrail

import (
	"context"
	"regexp"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// Category is one named tripwire group. The set is policy, not contract:
// new categories can be registered without touching call sites.
type Category struct {
	Name    string
	Pattern *regexp.Regexp
}

// Default tripwire categories. Input screening is intentionally blunt: a
// match is a hard reject, never a retry. The matcher flags shell-shaped
// and credential-shaped input, not semantic intent. The first match wins,
// so narrower patterns come before the broad shell word list: ~/.ssh
// would otherwise report as a shell command.
var defaultCategories = []Category{
	{
		Name:    "path-traversal",
		Pattern: regexp.MustCompile(`/etc/passwd|/etc/shadow|~/\.ssh`),
	},
	{
		Name: "shell-command",
		Pattern: regexp.MustCompile(`(?i)\b(curl|wget|bash|sh|nc|netcat|rm|mv|cp|sudo|su|ssh|scp|nmap|sqlmap|metasploit|base64|exec|spawn|fork|shell_exec|passthru|proc_open|popen)\b|\beval\(|\bsystem\(`),
	},
	{
		Name:    "shell-metachar",
		Pattern: regexp.MustCompile("`|;|&&|\\|\\||\\$\\(|\\{|\\}|2>|1>|>>"),
	},
	{
		Name:    "credential",
		Pattern: regexp.MustCompile(`(?i)sk-[a-z0-9]{8,}|-----BEGIN|api_key=|ghp_[a-z0-9]{20,}|bearer\s+[a-z0-9._\-]{16,}`),
	},
	{
		Name:    "markup-injection",
		Pattern: regexp.MustCompile(`(?i)<script|javascript:|data:text/html`),
	},
}

var (
	scriptTagPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>|<script\b[^>]*>`)
	encodedPattern   = regexp.MustCompile(`(?i)data:[^\s,]*(?:base64,)?[a-z0-9+/]{50,}={0,2}`)
	secretPattern    = regexp.MustCompile(`(?i)sk-[a-z0-9]{16,}|api_key=[^\s]+|ghp_[a-z0-9]{20,}|-----BEGIN [A-Z ]+ PRIVATE KEY-----`)
)

// Screen applies the tripwire to inbound text and sanitizes outbound
// text. The two passes use independent trigger sets: screening blocks a
// request outright, sanitizing degrades model output in place.
type Screen struct {
	categories []Category
}

type Option func(*Screen)

// WithCategory registers an additional tripwire category.
func WithCategory(c Category) Option {
	return func(s *Screen) {
		s.categories = append(s.categories, c)
	}
}

func New(opts ...Option) *Screen {
	s := &Screen{
		categories: defaultCategories,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check returns a blocked verdict when any category matches. Only the
// category name is logged; the matching text never is, so a screened
// secret cannot leak through the log pipeline.
func (s *Screen) Check(ctx context.Context, text string) model.GuardrailVerdict {
	for _, c := range s.categories {
		if c.Pattern.MatchString(text) {
			logging.From(ctx).Warn("guardrail tripwire matched", "category", c.Name)
			return model.GuardrailVerdict{Blocked: true, Category: c.Name}
		}
	}
	return model.GuardrailVerdict{}
}

// Sanitize strips script tags and encoded blobs from model output and
// redacts credential-shaped substrings. It never fails and is idempotent:
// the replacement markers do not match any sanitize pattern.
func (s *Screen) Sanitize(text string) string {
	cleaned := scriptTagPattern.ReplaceAllString(text, "[script removed]")
	cleaned = encodedPattern.ReplaceAllString(cleaned, "[encoded data removed]")
	cleaned = secretPattern.ReplaceAllString(cleaned, "[redacted]")
	return cleaned
}
