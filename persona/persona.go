// Package persona supplies cached, hot-reloadable system-prompt fragments
// composed from two externally maintained profile files: the assistant
// character sheet and the owner profile. Files are re-read only when their
// modification time changes, checked at most once per reload interval, so
// edits take effect without a restart. Missing files degrade gracefully to a
// minimal default persona.
package persona

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/helmsman-ai/helmsman/logging"
)

// DefaultReloadInterval is the minimum time between modification-time checks.
const DefaultReloadInterval = 60 * time.Second

// DefaultAssistantName is used when the character sheet is missing or does
// not declare a name.
const DefaultAssistantName = "Aria"

// Data is the parsed state of both profile files.
type Data struct {
	CharacterText string // full character sheet contents
	OwnerText     string // full owner profile contents
	AssistantName string // parsed from the character sheet "Nama:" field
	OwnerName     string // parsed from the owner profile "Nama:" field
	OwnerCallname string // parsed from the owner profile "Panggilan:" field
	OwnerLanguage string // parsed from the owner profile "Bahasa utama:" field
	LoadedAt      time.Time
}

// Options configure a Provider.
type Options struct {
	ReloadInterval time.Duration
	Logger         logging.Logger
}

// Provider reads, parses and caches the persona files. It is an explicit
// injected collaborator rather than ambient global state; construct one per
// process and share it. Safe for concurrent use.
type Provider struct {
	characterPath string
	ownerPath     string
	interval      time.Duration
	logger        logging.Logger

	mu             sync.Mutex
	data           Data
	characterMtime time.Time
	ownerMtime     time.Time
	lastCheck      time.Time
}

// NewProvider constructs a Provider for the two profile files and performs the
// initial load.
func NewProvider(characterPath, ownerPath string, optFns ...func(o *Options)) *Provider {
	opts := Options{
		ReloadInterval: DefaultReloadInterval,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	p := &Provider{
		characterPath: characterPath,
		ownerPath:     ownerPath,
		interval:      opts.ReloadInterval,
		logger:        opts.Logger,
	}
	p.mu.Lock()
	p.reloadLocked()
	p.mu.Unlock()
	return p
}

// Data returns the current parsed persona, reloading first when the interval
// elapsed and a file changed on disk.
func (p *Provider) Data() Data {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Since(p.lastCheck) >= p.interval {
		p.lastCheck = time.Now()
		if p.mtime(p.characterPath) != p.characterMtime || p.mtime(p.ownerPath) != p.ownerMtime {
			p.reloadLocked()
		}
	}
	return p.data
}

// AssistantName returns the assistant's display name.
func (p *Provider) AssistantName() string { return p.Data().AssistantName }

// OwnerCallname returns how the owner wants to be addressed, falling back to
// the owner name.
func (p *Provider) OwnerCallname() string {
	d := p.Data()
	if d.OwnerCallname != "" {
		return d.OwnerCallname
	}
	return d.OwnerName
}

// BuildSystemPrompt composes the full system prompt in fixed section order:
// character section, owner-profile section (only if present), addressing
// instruction (only if a callname was parsed), then the supplied extra
// context last.
func (p *Provider) BuildSystemPrompt(extra string) string {
	d := p.Data()
	var parts []string

	if d.CharacterText != "" {
		parts = append(parts, "## Character & Persona\n\n"+strings.TrimSpace(d.CharacterText))
	} else {
		parts = append(parts, fmt.Sprintf(
			"## Character & Persona\n\nYou are %s, a capable personal AI assistant.", d.AssistantName))
	}

	if d.OwnerText != "" {
		parts = append(parts, "## About the Owner\n\n"+strings.TrimSpace(d.OwnerText))
	} else if d.OwnerName != "" {
		parts = append(parts, fmt.Sprintf(
			"## About the Owner\n\nThe owner's name is %s. Address them by that name.", d.OwnerName))
	}

	if callname := d.OwnerCallname; callname != "" {
		parts = append(parts, fmt.Sprintf(
			"## Addressing\n\nAddress the owner as %q. Do not use any other form of address unless asked.", callname))
	}

	if extra != "" {
		parts = append(parts, strings.TrimSpace(extra))
	}

	return strings.Join(parts, "\n\n---\n\n")
}

// BuildBrowsingInstruction returns the condensed instruction injected into the
// browsing engine, which carries its own long system prompt. It names the
// assistant and owner where known and always includes the screenshot
// directive so produced images land on disk as attachments.
func (p *Provider) BuildBrowsingInstruction() string {
	d := p.Data()
	var lines []string
	if d.AssistantName != "" && d.AssistantName != DefaultAssistantName {
		lines = append(lines, fmt.Sprintf("You are %s, an AI assistant.", d.AssistantName))
	}
	if callname := p.OwnerCallname(); callname != "" {
		lines = append(lines, fmt.Sprintf("You are working for %s.", callname))
	}
	lines = append(lines,
		"IMPORTANT: Whenever you take a screenshot, always save it to a file so the image can be sent back to the user.")
	return strings.Join(lines, "\n")
}

// reloadLocked re-reads both files and re-parses Data. Caller holds p.mu.
func (p *Provider) reloadLocked() {
	characterText := p.read(p.characterPath)
	ownerText := p.read(p.ownerPath)

	p.data = Data{
		CharacterText: characterText,
		OwnerText:     ownerText,
		AssistantName: firstNonEmpty(parseField(characterText, "Nama"), DefaultAssistantName),
		OwnerName:     parseField(ownerText, "Nama"),
		OwnerCallname: parseField(ownerText, "Panggilan"),
		OwnerLanguage: firstNonEmpty(parseField(ownerText, "Bahasa utama"), "Indonesia"),
		LoadedAt:      time.Now(),
	}
	p.characterMtime = p.mtime(p.characterPath)
	p.ownerMtime = p.mtime(p.ownerPath)
	p.lastCheck = time.Now()

	p.logger.Info("persona loaded", "assistant", p.data.AssistantName, "owner", p.ownerCallnameLocked())
}

// ownerCallnameLocked is reloadLocked's logging helper; caller holds p.mu.
func (p *Provider) ownerCallnameLocked() string {
	if p.data.OwnerCallname != "" {
		return p.data.OwnerCallname
	}
	return p.data.OwnerName
}

func (p *Provider) read(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("persona file read failed", "path", path, "error", err)
		}
		return ""
	}
	return string(b)
}

func (p *Provider) mtime(path string) time.Time {
	if path == "" {
		return time.Time{}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// parseField extracts the value of a "Label: value" line, tolerating markdown
// emphasis markers around the label ("**Nama:** value", "- Nama: value") and
// stripping emphasis plus trailing parenthesized remarks from the value.
func parseField(text, label string) string {
	if text == "" {
		return ""
	}
	pattern := regexp.MustCompile(`(?im)\*{0,2}` + regexp.QuoteMeta(label) + `\*{0,2}\s*:\s*(.+)`)
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	raw := strings.TrimSpace(m[1])
	raw = strings.ReplaceAll(raw, "*", "")
	if i := strings.Index(raw, "("); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
