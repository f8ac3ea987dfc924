// Package inference provides the classifiers the predictor can run: a
// decision-tree artifact loaded from disk, a remote model service and a
// fixed-label stub.
package inference

import "context"

// Row is an ordered, named feature record.
type Row interface {
	Columns() []string
	Value(name string) (interface{}, bool)
}

// Model turns one feature row into a category label.
type Model interface {
	Name() string
	Predict(ctx context.Context, row Row) (string, error)
}

// Static always answers with the same label.
type Static struct {
	Label string
}

func (s Static) Name() string {
	return "static"
}

func (s Static) Predict(ctx context.Context, _ Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Label, nil
}

func rowMap(row Row) map[string]interface{} {
	cols := row.Columns()
	out := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		v, _ := row.Value(c)
		out[c] = v
	}
	return out
}
