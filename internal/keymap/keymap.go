// Package keymap translates physical key presses into calculator inputs.
//
// The default bindings mirror a desktop keyboard: digits, the four
// arithmetic operators, Enter/= to compute, Escape/Delete to clear and
// Backspace to delete. A TOML file can add or replace bindings:
//
//	[keys]
//	"s" = { kind = "scientific", value = "sin" }
//	"^" = { kind = "scientific", value = "x^y" }
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ternarybob/scicalc/pkg/calc"
)

// Binding pairs a key name with the input it produces.
type Binding struct {
	Key   string     `json:"key"`
	Input calc.Input `json:"input"`
}

// Keymap is a concurrency-safe key to input table.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[string]calc.Input
}

// fileFormat is the on-disk TOML layout.
type fileFormat struct {
	Keys map[string]calc.Input `toml:"keys"`
}

// DefaultBindings returns the built-in key bindings.
func DefaultBindings() map[string]calc.Input {
	b := make(map[string]calc.Input, 24)
	for _, d := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ".", "(", ")"} {
		b[d] = calc.Input{Kind: calc.KindDigit, Value: d}
	}

	b["+"] = calc.Input{Kind: calc.KindOperator, Value: string(calc.OpAdd)}
	b["-"] = calc.Input{Kind: calc.KindOperator, Value: string(calc.OpSubtract)}
	b["*"] = calc.Input{Kind: calc.KindOperator, Value: string(calc.OpMultiply)}
	b["/"] = calc.Input{Kind: calc.KindOperator, Value: string(calc.OpDivide)}

	b["Enter"] = calc.Input{Kind: calc.KindEquals}
	b["="] = calc.Input{Kind: calc.KindEquals}
	b["Escape"] = calc.Input{Kind: calc.KindClear}
	b["Delete"] = calc.Input{Kind: calc.KindClear}
	b["Backspace"] = calc.Input{Kind: calc.KindDelete}
	b["%"] = calc.Input{Kind: calc.KindPercent}
	return b
}

// New returns a keymap holding the default bindings.
func New() *Keymap {
	return &Keymap{bindings: DefaultBindings()}
}

// Lookup returns the input bound to key.
func (k *Keymap) Lookup(key string) (calc.Input, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	in, ok := k.bindings[key]
	return in, ok
}

// Bindings returns all bindings sorted by key.
func (k *Keymap) Bindings() []Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Binding, 0, len(k.bindings))
	for key, in := range k.bindings {
		out = append(out, Binding{Key: key, Input: in})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Replace swaps in the defaults merged with overrides.
func (k *Keymap) Replace(overrides map[string]calc.Input) {
	b := DefaultBindings()
	for key, in := range overrides {
		b[key] = in
	}

	k.mu.Lock()
	k.bindings = b
	k.mu.Unlock()
}

// ErrUnresolved is returned for a token that is neither a bound key, a
// number, a kind[:value] input nor a function name.
var ErrUnresolved = errors.New("unresolved token")

// Resolve turns one typed token into inputs. Tokens are tried as a bound key,
// then as a run of digits ("12.5" becomes four digit inputs), then in
// kind[:value] form, then as a scientific function name.
func (k *Keymap) Resolve(token string) ([]calc.Input, error) {
	if in, ok := k.Lookup(token); ok {
		return []calc.Input{in}, nil
	}

	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnresolved)
	}

	if isNumber(token) {
		out := make([]calc.Input, 0, len(token))
		for _, r := range token {
			out = append(out, calc.Input{Kind: calc.KindDigit, Value: string(r)})
		}
		return out, nil
	}

	if in, err := calc.ParseInput(token); err == nil {
		return []calc.Input{in}, nil
	}

	if fn, ok := calc.CanonicalFunction(token); ok {
		return []calc.Input{{Kind: calc.KindScientific, Value: fn}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnresolved, token)
}

// ResolveLine resolves every whitespace-separated token of line.
func (k *Keymap) ResolveLine(line string) ([]calc.Input, error) {
	var out []calc.Input
	for _, token := range strings.Fields(line) {
		inputs, err := k.Resolve(token)
		if err != nil {
			return nil, err
		}
		out = append(out, inputs...)
	}
	return out, nil
}

func isNumber(token string) bool {
	for _, r := range token {
		if !calc.IsDigitToken(string(r)) {
			return false
		}
	}
	return true
}

// LoadFile reads key overrides from a TOML file.
func LoadFile(path string) (map[string]calc.Input, error) {
	var f fileFormat
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parse keymap %s: %w", path, err)
	}

	for key, in := range f.Keys {
		if key == "" {
			return nil, fmt.Errorf("keymap %s: empty key name", path)
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("keymap %s: key %q: %w", path, key, err)
		}
	}
	return f.Keys, nil
}

// Load returns a keymap with the defaults merged with the overrides in path.
// An empty path yields the defaults.
func Load(path string) (*Keymap, error) {
	k := New()
	if path == "" {
		return k, nil
	}

	overrides, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	k.Replace(overrides)
	return k, nil
}
