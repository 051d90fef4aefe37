package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProgressEvent is the append-only journal of learner transitions: section
// completions, failed attempts, surveys and certificates.
type ProgressEvent struct {
	ent.Schema
}

func (ProgressEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ProgressEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("user_id").NotEmpty(),
		field.String("kind").
			Comment("section_completed, quiz_failed, survey_completed, ..."),
		field.String("day").Default(""),
		field.String("section_id").Default(""),
		field.Int("correct").Default(0),
		field.Int("incorrect").Default(0),
		field.String("detail").
			Default("").
			Comment("Kind-specific payload, e.g. survey answers as JSON"),
	}
}

func (ProgressEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("kind"),
	}
}
