package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/iamsmart/masterclass/ent/schema"
)

// Table names.
const (
	profilesTable       = "profiles"
	progressEventsTable = "progress_events"
	llmEventsTable      = "llm_request_events"
)

var schemaDefs = []struct {
	name string
	def  ent.Interface
}{
	{profilesTable, entschema.Profile{}},
	{progressEventsTable, entschema.ProgressEvent{}},
	{llmEventsTable, entschema.LLMRequestEvent{}},
}

// tables derives the migration tables from the ent schema definitions.
func tables() ([]*schema.Table, error) {
	out := make([]*schema.Table, 0, len(schemaDefs))
	for _, d := range schemaDefs {
		t, err := tableOf(d.name, d.def)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// descriptorsOf returns the field descriptors of a schema and its mixins,
// mixin fields first.
func descriptorsOf(name string, def ent.Interface) ([]*field.Descriptor, error) {
	var fields []ent.Field
	for _, m := range def.Mixin() {
		fields = append(fields, m.Fields()...)
	}
	fields = append(fields, def.Fields()...)

	out := make([]*field.Descriptor, 0, len(fields))
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("table %s: field %s: %w", name, d.Name, d.Err)
		}
		out = append(out, d)
	}
	return out, nil
}

// tableOf builds a table with an auto-increment id from an ent schema and
// its mixins.
func tableOf(name string, def ent.Interface) (*schema.Table, error) {
	descs, err := descriptorsOf(name, def)
	if err != nil {
		return nil, err
	}
	var indexes []ent.Index
	for _, m := range def.Mixin() {
		indexes = append(indexes, m.Indexes()...)
	}
	indexes = append(indexes, def.Indexes()...)

	id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
	t := schema.NewTable(name).AddPrimary(id)
	for _, d := range descs {
		t.AddColumn(&schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional || d.Nillable,
		})
	}
	for _, ix := range indexes {
		d := ix.Descriptor()
		t.AddIndex(name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t, nil
}

// ErrInvalidRow is returned when a row breaks a field rule declared in
// ent/schema.
var ErrInvalidRow = errors.New("invalid row")

var (
	fieldsOnce  sync.Once
	fieldsByTbl map[string][]*field.Descriptor
	fieldsErr   error
)

func tableFields(table string) ([]*field.Descriptor, error) {
	fieldsOnce.Do(func() {
		fieldsByTbl = make(map[string][]*field.Descriptor, len(schemaDefs))
		for _, d := range schemaDefs {
			descs, err := descriptorsOf(d.name, d.def)
			if err != nil {
				fieldsErr = err
				return
			}
			fieldsByTbl[d.name] = descs
		}
	})
	if fieldsErr != nil {
		return nil, fieldsErr
	}
	descs, ok := fieldsByTbl[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return descs, nil
}

// checkRow applies the schema's defaults and validators to values and
// returns the columns and arguments for an insert, in declaration order.
// Required fields without a default must be present. Times are stored in UTC.
func checkRow(table string, values map[string]any) ([]string, []any, error) {
	descs, err := tableFields(table)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]bool, len(descs))
	cols := make([]string, 0, len(descs))
	args := make([]any, 0, len(descs))
	for _, d := range descs {
		known[d.Name] = true
		v, ok := values[d.Name]
		if !ok {
			switch {
			case d.Default != nil:
				v = defaultValue(d.Default)
			case d.Optional:
				continue
			default:
				return nil, nil, fmt.Errorf("%w: %s.%s is required", ErrInvalidRow, table, d.Name)
			}
		}
		if err := validate(d, v); err != nil {
			return nil, nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidRow, table, d.Name, err)
		}
		if ts, ok := v.(time.Time); ok {
			v = ts.UTC()
		}
		cols = append(cols, d.Name)
		args = append(args, v)
	}
	for name := range values {
		if !known[name] {
			return nil, nil, fmt.Errorf("%w: %s has no column %q", ErrInvalidRow, table, name)
		}
	}
	return cols, args, nil
}

// defaultValue resolves a descriptor default, calling it when it is a
// generator such as time.Now.
func defaultValue(def any) any {
	switch fn := def.(type) {
	case func() time.Time:
		return fn()
	case func() string:
		return fn()
	default:
		return def
	}
}

// validate runs the descriptor's validators after checking v has the Go
// type the column expects.
func validate(d *field.Descriptor, v any) error {
	switch d.Info.Type {
	case field.TypeString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		for _, fn := range d.Validators {
			if check, ok := fn.(func(string) error); ok {
				if err := check(s); err != nil {
					return err
				}
			}
		}
	case field.TypeInt:
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("want int, got %T", v)
		}
		for _, fn := range d.Validators {
			if check, ok := fn.(func(int) error); ok {
				if err := check(n); err != nil {
					return err
				}
			}
		}
	case field.TypeInt64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("want int64, got %T", v)
		}
		for _, fn := range d.Validators {
			if check, ok := fn.(func(int64) error); ok {
				if err := check(n); err != nil {
					return err
				}
			}
		}
	case field.TypeBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
	case field.TypeTime:
		if _, ok := v.(time.Time); !ok {
			return fmt.Errorf("want time.Time, got %T", v)
		}
	}
	return nil
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	tbls, err := tables()
	if err != nil {
		return err
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, tbls...)
}
