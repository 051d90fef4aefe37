package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Profile stores one learner profile document per user. The document is
// replaced as a whole on every save.
type Profile struct {
	ent.Schema
}

func (Profile) Fields() []ent.Field {
	return []ent.Field{
		field.String("user_id").
			NotEmpty().
			Unique().
			Comment("Learner identifier"),
		field.JSON("data", map[string]any{}).
			Comment("Completed sections, stats, surveys and onboarding as JSON"),
		field.Time("updated_at").
			Default(time.Now).
			Comment("When the document was last written"),
	}
}

func (Profile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("updated_at"),
	}
}
