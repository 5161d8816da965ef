package dbdump

import (
	"strings"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
)

// symbolTable binds dump-local "$name" tokens to the Ids they were
// allocated for a `mkentity $name` (spec §4.11: "Symbol table $name → Id").
// Forward references are not supported: every symbol must be bound before
// it is referenced.
type symbolTable struct {
	byName map[string]dbid.Id
}

func newSymbolTable() *symbolTable {
	return &symbolTable{byName: make(map[string]dbid.Id)}
}

func (t *symbolTable) bind(name string, id dbid.Id) {
	t.byName[name] = id
}

// resolve looks up token, which must carry the "$" sigil.
func (t *symbolTable) resolve(token string) (dbid.Id, error) {
	if !strings.HasPrefix(token, "$") {
		return dbid.Id{}, dberrors.BadArguments("expected a $symbol, got %q", token)
	}

	name := strings.TrimPrefix(token, "$")

	id, ok := t.byName[name]
	if !ok {
		return dbid.Id{}, dberrors.BadArguments("unbound symbol $%s", name)
	}

	return id, nil
}
