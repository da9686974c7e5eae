package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantMsg  string
		wantCat  Category
		wantKind Kind
	}{
		{
			name:     "configuration error",
			code:     "E200",
			wantMsg:  "Invalid observer option",
			wantCat:  CategoryConfig,
			wantKind: KindTypeError,
		},
		{
			name:     "unparseable url",
			code:     "E202",
			wantMsg:  "Invalid module URL",
			wantCat:  CategoryResolution,
			wantKind: KindSyntaxError,
		},
		{
			name:     "registry conflict",
			code:     "E211",
			wantMsg:  "Element definition rejected",
			wantCat:  CategoryLoad,
			wantKind: KindNotSupportedError,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "page.html")
	if err.Message != `file "page.html" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "page.html" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "code only",
			err:  New("E200"),
			want: "E200: Invalid observer option",
		},
		{
			name: "name and url",
			err:  New("E210").WithName("x-a").WithURL("file:///x-a.js"),
			want: `E210: Element module failed to load (name "x-a", url "file:///x-a.js")`,
		},
		{
			name: "wrapped cause",
			err:  New("E201").WithName("x-a").Wrap(fmt.Errorf("no entry")),
			want: `E201: URL resolver returned no URL (name "x-a"): no entry`,
		},
		{
			name: "no code",
			err:  &Error{Message: "test error"},
			want: "test error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsByCode(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", New("E210").WithName("x-a"))

	if !stderrors.Is(err, New("E210")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("E211")) {
		t.Error("errors.Is should not match a different code")
	}
	if !HasCode(err, "E210") {
		t.Error("HasCode(E210) = false, want true")
	}
	if CategoryOf(err) != CategoryLoad {
		t.Errorf("CategoryOf = %q, want %q", CategoryOf(err), CategoryLoad)
	}
	if CategoryOf(fmt.Errorf("plain")) != "" {
		t.Error("CategoryOf(plain) should be empty")
	}
}

func TestError_Wrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	outer := New("E210").Wrap(inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E210") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	e := New("E211")
	if FromError(fmt.Errorf("wrapped: %w", e), "E210") != e {
		t.Error("FromError should return the *Error in the chain as-is")
	}

	plain := stderrors.New("boom")
	result := FromError(plain, "E210")
	if result.Wrapped != plain {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != "E210" {
		t.Errorf("Code = %q, want E210", result.Code)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E210").
		WithName("x-button").
		WithURL("https://cdn.example.com/x-button.json").
		WithSuggestion("Check that the module exists").
		Wrap(stderrors.New("status 404"))

	formatted := err.Format()

	for _, want := range []string{
		"E210",
		"Element module failed to load",
		"x-button",
		"https://cdn.example.com/x-button.json",
		"Caused by: status 404",
		"Hint: Check that the module exists",
		"Learn more:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	compact := New("E202").WithName("x-a").FormatCompact()

	want := "x-a: E202: Invalid module URL"
	if compact != want {
		t.Errorf("FormatCompact() = %q, want %q", compact, want)
	}
}

func TestFormatJSON(t *testing.T) {
	json := New("E210").WithName("x-a").WithURL("file:///x-a.js").FormatJSON()

	for _, want := range []string{
		`"code":"E210"`,
		`"category":"load"`,
		`"kind":"NetworkError"`,
		`"name":"x-a"`,
		`"url":"file:///x-a.js"`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, json)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("wrapped: %w", New("E300")))
	if !strings.Contains(buf.String(), "E300: ") {
		t.Errorf("Fprint coded error = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint plain error = %q", buf.String())
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("E201")
	if !ok {
		t.Fatal("E201 should exist")
	}
	if template.Category != CategoryResolution {
		t.Errorf("Category = %q, want %q", template.Category, CategoryResolution)
	}

	if _, ok := GetTemplate("E999"); ok {
		t.Error("E999 should not exist")
	}
	if len(GetAllCodes()) == 0 {
		t.Error("GetAllCodes() should return codes")
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{
		Category: CategoryLoad,
		Message:  "Custom test error",
	})
	defer delete(registry, "E999")

	if err := New("E999"); err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}
