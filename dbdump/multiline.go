package dbdump

import (
	"context"
	"strconv"
	"strings"

	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// multilineState accumulates a DOCUMENT or SET value across several lines
// (spec §6.3). A priming line ("lines N" / "items N") announces how many
// content lines follow; an early literal ".end" line force-finishes the
// value regardless of how many lines remain, and is honored symmetrically
// for both DOCUMENT and SET, unlike the dump format this reader is
// grounded on, which only allowed it for DOCUMENT.
type multilineState struct {
	variant     dbtype.Variant
	elemVariant dbtype.Variant

	remaining int
	lines     []string
	elems     []dbtype.PropertyData

	finish func(ctx context.Context, data dbtype.PropertyData) error
}

func parseCountHeader(keyword, value string) (int, error) {
	word, rest := splitWord(value)
	if !strings.EqualFold(word, keyword) {
		return 0, dberrors.BadArguments("expected %q N, got %q", keyword, value)
	}

	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 0 {
		return 0, dberrors.BadArguments("expected a non-negative count after %q, got %q", keyword, rest)
	}

	return n, nil
}

func (r *DumpReader) beginDocumentLines(value string) error {
	n, err := parseCountHeader("lines", value)
	if err != nil {
		return err
	}

	r.multiline.remaining = n
	r.multiline.lines = nil
	r.inner = innerDocument

	if n == 0 {
		return nil
	}

	return nil
}

func (r *DumpReader) continueDocument(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == ".end" {
		return r.finishDocument(ctx)
	}

	if r.multiline.remaining == 0 {
		if strings.ToLower(strings.TrimSpace(line)) != "end lines" {
			return dberrors.BadArguments("expected end lines, got %q", line)
		}

		return r.finishDocument(ctx)
	}

	r.multiline.lines = append(r.multiline.lines, line)
	r.multiline.remaining--

	return nil
}

func (r *DumpReader) finishDocument(ctx context.Context) error {
	data, err := dbtype.NewDocument(r.multiline.lines)
	if err != nil {
		return err
	}

	finish := r.multiline.finish
	r.inner = innerNone
	r.multiline = multilineState{}

	return finish(ctx, data)
}

func (r *DumpReader) beginSetItems(value string) error {
	n, err := parseCountHeader("items", value)
	if err != nil {
		return err
	}

	r.multiline.remaining = n
	r.multiline.elems = nil
	r.inner = innerSet

	return nil
}

func (r *DumpReader) continueSet(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == ".end" {
		return r.finishSet(ctx)
	}

	if r.multiline.remaining == 0 {
		if strings.ToLower(strings.TrimSpace(line)) != "end items" {
			return dberrors.BadArguments("expected end items, got %q", line)
		}

		return r.finishSet(ctx)
	}

	data, err := parseScalar(r.multiline.elemVariant, strings.TrimSpace(line), r.symbols)
	if err != nil {
		return err
	}

	r.multiline.elems = append(r.multiline.elems, data)
	r.multiline.remaining--

	return nil
}

func (r *DumpReader) finishSet(ctx context.Context) error {
	data, err := dbtype.NewSet(r.multiline.elems)
	if err != nil {
		return err
	}

	finish := r.multiline.finish
	r.inner = innerNone
	r.multiline = multilineState{}

	return finish(ctx, data)
}
