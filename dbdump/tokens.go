package dbdump

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// splitWord splits line on its first run of whitespace, returning the
// first token and the remainder with surrounding whitespace trimmed. Used for commands
// whose argument is free text (names, descriptions) rather than another
// token.
func splitWord(line string) (word, rest string) {
	line = strings.TrimSpace(line)

	idx := strings.IndexFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		return line, ""
	}

	return line[:idx], strings.TrimSpace(line[idx:])
}

// keyValue splits a "key = value" field/property assignment line. Returns
// ok=false if there is no "=" in the line.
func keyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}

	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])

	return key, value, true
}

// normalizeFieldName tolerates camelCase or mixed-case field tokens in a
// dump by folding them to the table's canonical snake_case keys.
func normalizeFieldName(s string) string {
	return strcase.ToSnake(s)
}

// splitApplicationPath splits a fully qualified "/app/rest/of/path"
// property path into its application name and the remaining directory
// path, mirroring primitives' unexported helper of the same name (spec
// §3.4: "the first path segment ... selects an application").
func splitApplicationPath(path string) (app, rest string, ok bool) {
	trimmed := strings.TrimLeft(path, "/")
	if trimmed == "" {
		return "", "", false
	}

	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return "", "", false
	}

	return trimmed[:idx], trimmed[idx+1:], true
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dberrors.BadArguments("expected a non-negative integer, got %q", s)
	}

	return n, nil
}

// parseEntityType maps a dump "mkentity <type>" token to its EntityType,
// the inverse of EntityType.String().
func parseEntityType(s string) (dbtype.EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entity":
		return dbtype.TypeEntity, nil
	case "property_entity":
		return dbtype.TypePropertyEntity, nil
	case "container_property_entity":
		return dbtype.TypeContainerPropertyEntity, nil
	case "thing":
		return dbtype.TypeThing, nil
	case "puppet":
		return dbtype.TypePuppet, nil
	case "vehicle":
		return dbtype.TypeVehicle, nil
	case "player":
		return dbtype.TypePlayer, nil
	case "guest":
		return dbtype.TypeGuest, nil
	case "action":
		return dbtype.TypeAction, nil
	case "exit":
		return dbtype.TypeExit, nil
	case "room":
		return dbtype.TypeRoom, nil
	case "region":
		return dbtype.TypeRegion, nil
	case "group":
		return dbtype.TypeGroup, nil
	case "capability":
		return dbtype.TypeCapability, nil
	case "program":
		return dbtype.TypeProgram, nil
	default:
		return 0, dberrors.BadArguments("unknown entity type %q", s)
	}
}

// parseFlag maps a dump "flag <flagname>" token to its Flag bit.
func parseFlag(s string) (dbtype.Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return dbtype.FlagRead, nil
	case "write":
		return dbtype.FlagWrite, nil
	case "basic":
		return dbtype.FlagBasic, nil
	case "chown":
		return dbtype.FlagChown, nil
	default:
		return 0, dberrors.BadArguments("unknown security flag %q", s)
	}
}

// parsePropertyVariant maps a PROPERTIES-state "<type>" token to the
// Variant it declares (spec §6.3: "type ∈ {string, integer, float,
// boolean, id, document, set}").
func parsePropertyVariant(s string) (dbtype.Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return dbtype.VariantString, nil
	case "integer":
		return dbtype.VariantInteger, nil
	case "float":
		return dbtype.VariantFloat, nil
	case "boolean":
		return dbtype.VariantBoolean, nil
	case "id":
		return dbtype.VariantID, nil
	case "document":
		return dbtype.VariantDocument, nil
	case "set":
		return dbtype.VariantSet, nil
	default:
		return 0, dberrors.BadArguments("unknown property type %q", s)
	}
}

// parseScalar parses a single token of the given variant into a
// PropertyData. Document and Set are excluded: they have their own
// multi-line sub-states and never reach this path directly.
func parseScalar(variant dbtype.Variant, token string, symbols *symbolTable) (dbtype.PropertyData, error) {
	switch variant {
	case dbtype.VariantString:
		return dbtype.NewString(token), nil
	case dbtype.VariantInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil {
			return dbtype.PropertyData{}, dberrors.BadArguments("expected an integer, got %q", token)
		}

		return dbtype.NewInteger(n), nil
	case dbtype.VariantFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return dbtype.PropertyData{}, dberrors.BadArguments("expected a float, got %q", token)
		}

		return dbtype.NewFloat(f), nil
	case dbtype.VariantBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(token))
		if err != nil {
			return dbtype.PropertyData{}, dberrors.BadArguments("expected a boolean, got %q", token)
		}

		return dbtype.NewBoolean(b), nil
	case dbtype.VariantID:
		id, err := symbols.resolve(strings.TrimSpace(token))
		if err != nil {
			return dbtype.PropertyData{}, err
		}

		return dbtype.NewID(id), nil
	default:
		return dbtype.PropertyData{}, dberrors.BadArguments("%s has no single-token form", variant)
	}
}
