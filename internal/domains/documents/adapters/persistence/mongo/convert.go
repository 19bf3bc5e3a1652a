package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Apurer/school-activities-api/internal/domains/documents/domain"
)

func toBSONFilter(f domain.Filter) bson.M {
	out := bson.M{}
	if len(f.All) > 0 {
		out["$and"] = toBSONConditions(f.All)
	}
	if len(f.Any) > 0 {
		out["$or"] = toBSONConditions(f.Any)
	}
	return out
}

func toBSONConditions(conds []domain.Condition) bson.A {
	out := make(bson.A, 0, len(conds))
	for _, c := range conds {
		switch c.Match {
		case domain.MatchPattern:
			pattern, _ := c.Value.(string)
			out = append(out, bson.M{c.Field: primitive.Regex{Pattern: pattern, Options: "i"}})
		default:
			out = append(out, bson.M{c.Field: c.Value})
		}
	}
	return out
}

func toBSONUpdate(op domain.UpdateOp) bson.M {
	update := bson.M{}
	if len(op.Inc) > 0 {
		inc := bson.M{}
		for field, delta := range op.Inc {
			inc[field] = delta
		}
		update["$inc"] = inc
	}
	if set := op.Set.WithoutID(); len(set) > 0 {
		update["$set"] = bson.M(set)
	}
	return update
}

// fromBSON converts decoded BSON into plain JSON-friendly values; ObjectIDs
// become hex strings and datetimes become time.Time.
func fromBSON(m bson.M) domain.Document {
	out := make(domain.Document, len(m))
	for k, v := range m {
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return fromBSON(t)
	case bson.D:
		return fromBSON(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromBSONValue(t[i])
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	default:
		return v
	}
}
