// Package security holds the static access-control table loaded at start-up.
//
// Rows follow the ir.model.access.csv layout:
//
//	id,name,model_id:id,group_id:id,perm_read,perm_write,perm_create,perm_unlink
//
// The table is not evaluated by domain services. The HTTP layer expands the
// caller's groups into "<model>:<op>" permission strings and checks those.
package security

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Operations checked by the HTTP layer.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpCreate = "create"
	OpUnlink = "unlink"
)

// Access is one row of the access table.
type Access struct {
	ID     string
	Name   string
	Model  string // dotted model name, e.g. "partner.treatment"
	Group  string // empty means every authenticated user
	Read   bool
	Write  bool
	Create bool
	Unlink bool
}

// Table is an immutable set of access rows.
type Table struct {
	rules []Access
}

var csvHeader = []string{
	"id", "name", "model_id:id", "group_id:id",
	"perm_read", "perm_write", "perm_create", "perm_unlink",
}

// LoadFile reads the access table from a CSV file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open access table: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses the access table. The header row is required.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("access table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("access table header: expected %d columns, got %d", len(csvHeader), len(header))
	}
	for i, col := range csvHeader {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("access table header: column %d is %q, expected %q", i, header[i], col)
		}
	}

	t := &Table{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.rules = append(t.rules, row)
	}
	return t, nil
}

func parseRow(rec []string) (Access, error) {
	perms := make([]bool, 4)
	for i := range perms {
		switch strings.TrimSpace(rec[4+i]) {
		case "1", "true", "True":
			perms[i] = true
		case "0", "false", "False", "":
		default:
			return Access{}, fmt.Errorf("%s: invalid flag %q", csvHeader[4+i], rec[4+i])
		}
	}
	model := modelFromRef(rec[2])
	if model == "" {
		return Access{}, fmt.Errorf("model_id:id is empty")
	}
	return Access{
		ID:     strings.TrimSpace(rec[0]),
		Name:   strings.TrimSpace(rec[1]),
		Model:  model,
		Group:  groupFromRef(rec[3]),
		Read:   perms[0],
		Write:  perms[1],
		Create: perms[2],
		Unlink: perms[3],
	}, nil
}

// modelFromRef turns "module.model_partner_treatment" into "partner.treatment".
// Already dotted model names pass through unchanged.
func modelFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, ".model_"); i >= 0 {
		ref = ref[i+1:]
	}
	if strings.HasPrefix(ref, "model_") {
		return strings.ReplaceAll(strings.TrimPrefix(ref, "model_"), "_", ".")
	}
	return ref
}

func groupFromRef(ref string) string {
	return strings.TrimSpace(ref)
}

// Rules returns a copy of all rows.
func (t *Table) Rules() []Access {
	out := make([]Access, len(t.rules))
	copy(out, t.rules)
	return out
}

// Permissions expands groups into sorted "<model>:<op>" strings.
// Rows without a group apply to everyone.
func (t *Table) Permissions(groups []string) []string {
	member := make(map[string]bool, len(groups))
	for _, g := range groups {
		member[g] = true
	}

	set := make(map[string]struct{})
	for _, r := range t.rules {
		if r.Group != "" && !member[r.Group] {
			continue
		}
		if r.Read {
			set[Permission(r.Model, OpRead)] = struct{}{}
		}
		if r.Write {
			set[Permission(r.Model, OpWrite)] = struct{}{}
		}
		if r.Create {
			set[Permission(r.Model, OpCreate)] = struct{}{}
		}
		if r.Unlink {
			set[Permission(r.Model, OpUnlink)] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Permission builds the permission string checked by route middleware.
func Permission(model, op string) string {
	return model + ":" + op
}
