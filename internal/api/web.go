package api

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/ternarybob/scicalc/pkg/calc"
	"github.com/ternarybob/scicalc/web"
)

// WebButton is one key of the rendered keypad.
type WebButton struct {
	Label string
	Kind  calc.Kind
	Value string
	Class string
}

// WebPageData is the data for the calculator page template.
type WebPageData struct {
	Version        string
	ErrorDisplayMS int64
	Scientific     [][]WebButton
	Keypad         [][]WebButton
}

func sci(label string) WebButton {
	return WebButton{Label: label, Kind: calc.KindScientific, Value: label, Class: "btn-scientific"}
}

func digit(label string) WebButton {
	return WebButton{Label: label, Kind: calc.KindDigit, Value: label, Class: "btn-number"}
}

func operator(op calc.Operator) WebButton {
	return WebButton{Label: string(op), Kind: calc.KindOperator, Value: string(op), Class: "btn-operator"}
}

func function(label string, kind calc.Kind) WebButton {
	return WebButton{Label: label, Kind: kind, Class: "btn-function"}
}

// scientificRows lays out the scientific keys above the keypad.
func scientificRows() [][]WebButton {
	return [][]WebButton{
		{sci(calc.FnSin), sci(calc.FnCos), sci(calc.FnTan), sci(calc.FnPi), sci(calc.FnE)},
		{sci(calc.FnSinh), sci(calc.FnCosh), sci(calc.FnTanh), sci(calc.FnOpenParen), sci(calc.FnCloseParen)},
		{sci(calc.FnLog), sci(calc.FnLn), sci(calc.FnSqrt), sci(calc.FnSquare), sci(calc.FnPower)},
		{sci(calc.FnTenPower), sci(calc.FnExp), sci(calc.FnReciprocal), sci(calc.FnAbs), sci(calc.FnFactorial)},
	}
}

// keypadRows lays out the basic keypad.
func keypadRows() [][]WebButton {
	return [][]WebButton{
		{function("C", calc.KindClear), function("⌫", calc.KindDelete), function("%", calc.KindPercent), operator(calc.OpDivide)},
		{digit("7"), digit("8"), digit("9"), operator(calc.OpMultiply)},
		{digit("4"), digit("5"), digit("6"), operator(calc.OpSubtract)},
		{digit("1"), digit("2"), digit("3"), operator(calc.OpAdd)},
		{digit("0"), digit("."), {Label: "=", Kind: calc.KindEquals, Class: "btn-equals"}},
	}
}

// handleWebRoot serves the calculator page.
func (s *Server) handleWebRoot(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := WebPageData{
		Version:        version,
		ErrorDisplayMS: s.cfg.Calculator.ErrorDisplay.Milliseconds(),
		Scientific:     scientificRows(),
		Keypad:         keypadRows(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Template execution error: "+err.Error(), http.StatusInternalServerError)
	}
}

// handleWebAssets serves embedded static files under /web/.
func (s *Server) handleWebAssets(w http.ResponseWriter, r *http.Request) {
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		http.Error(w, "Static assets unavailable", http.StatusInternalServerError)
		return
	}

	http.StripPrefix("/web/", http.FileServer(http.FS(static))).ServeHTTP(w, r)
}
