package relation

import (
	"strings"

	"github.com/artpar/lifeguard/core/identity"
	"github.com/artpar/lifeguard/core/query"
)

// ForeignKeyName derives the foreign key column referencing table: one
// trailing "s" is stripped and "_id" appended. Irregular plurals are not
// handled ("categories" becomes "categorie_id"); declare the columns
// explicitly for those.
func ForeignKeyName(table string) string {
	return strings.TrimSuffix(table, "s") + "_id"
}

// InferHasMany declares src has many rows of target, keyed by a foreign key
// in target named after src's table.
func InferHasMany(src query.Table, target string) Def {
	return Def{
		Kind:      HasMany,
		FromTable: src.TableName(),
		ToTable:   target,
		From:      src.PrimaryKey(),
		To:        identity.Unary(ForeignKeyName(src.TableName())),
		IsOwner:   true,
	}
}

// InferHasOne is InferHasMany with HasOne cardinality.
func InferHasOne(src query.Table, target string) Def {
	d := InferHasMany(src, target)
	d.Kind = HasOne
	return d
}

// InferBelongsTo declares that src holds a foreign key to target, named after
// target's table.
func InferBelongsTo(src string, target query.Table) Def {
	return Def{
		Kind:      BelongsTo,
		FromTable: src,
		ToTable:   target.TableName(),
		From:      identity.Unary(ForeignKeyName(target.TableName())),
		To:        target.PrimaryKey(),
	}
}
