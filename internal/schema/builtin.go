package schema

// Default returns the built-in registry of governance object types.
// The CUE loader can replace or extend this set; the built-in classes
// match the tables created by the store's schema.
func Default() *Registry {
	r, err := NewRegistry(builtinClasses()...)
	if err != nil {
		// Built-in definitions are static; a failure here is a bug.
		panic(err)
	}
	return r
}

func builtinClasses() []*Class {
	titled := TitleProjection{Column: "title"}

	return []*Class{
		{
			Name:       "Program",
			Table:      "programs",
			SlugColumn: "slug",
			Attributes: []Attribute{
				{Name: "title", Display: "Title"},
				{Name: "slug", Display: "Code"},
				{Name: "description", Display: "Description"},
				{Name: "status", Display: "State"},
				{Name: "url", Display: "Program URL"},
				{Name: "start_date", Display: "Effective Date"},
				{Name: "end_date", Display: "Stop Date"},
			},
			Relationships: []Relationship{
				{Name: "contact", Column: "contact_id", Target: "Person", Display: "Contact"},
			},
			Projection: titled,
		},
		{
			Name:       "Audit",
			Table:      "audits",
			SlugColumn: "slug",
			Attributes: []Attribute{
				{Name: "title", Display: "Title"},
				{Name: "slug", Display: "Code"},
				{Name: "description", Display: "Description"},
				{Name: "status", Display: "Status"},
				{Name: "planned_start_date", Display: "Planned Start Date"},
				{Name: "planned_end_date", Display: "Planned End Date"},
			},
			Relationships: []Relationship{
				{Name: "program", Column: "program_id", Target: "Program", Display: "Program"},
				{Name: "contact", Column: "contact_id", Target: "Person", Display: "Internal Audit Lead"},
			},
			Projection: titled,
		},
		{
			Name:       "Control",
			Table:      "controls",
			SlugColumn: "slug",
			Attributes: []Attribute{
				{Name: "title", Display: "Title"},
				{Name: "slug", Display: "Code"},
				{Name: "description", Display: "Description"},
				{Name: "status", Display: "State"},
				{Name: "start_date", Display: "Effective Date"},
				{Name: "end_date", Display: "Stop Date"},
			},
			Relationships: []Relationship{
				{Name: "contact", Column: "contact_id", Target: "Person", Display: "Contact"},
			},
			Projection: titled,
			Similarity: &SimilaritySpec{Threshold: 1},
		},
		{
			Name:       "Assessment",
			Table:      "assessments",
			SlugColumn: "slug",
			Attributes: []Attribute{
				{Name: "title", Display: "Title"},
				{Name: "slug", Display: "Code"},
				{Name: "description", Display: "Description"},
				{Name: "status", Display: "Status"},
			},
			Relationships: []Relationship{
				{Name: "audit", Column: "audit_id", Target: "Audit", Display: "Audit"},
				{Name: "contact", Column: "contact_id", Target: "Person", Display: "Assessor"},
			},
			Projection: titled,
			Similarity: &SimilaritySpec{Threshold: 1},
		},
		{
			Name:  "Person",
			Table: "people",
			Attributes: []Attribute{
				{Name: "name", Display: "Name"},
				{Name: "email", Display: "Email"},
				{Name: "company", Display: "Company"},
			},
			Projection: NameEmailProjection{NameColumn: "name", EmailColumn: "email"},
		},
		{
			Name:       "TaskGroupTask",
			Table:      "task_group_tasks",
			SlugColumn: "slug",
			Attributes: []Attribute{
				{Name: "title", Display: "Title"},
				{Name: "slug", Display: "Code"},
				{Name: "description", Display: "Description"},
				{Name: "status", Display: "Status"},
				{Name: "start_date", Display: "Start Date"},
				{Name: "end_date", Display: "End Date"},
				// Relative fields addressed by the task date macro expansion.
				{Name: "relative_start_month"},
				{Name: "relative_start_day"},
				{Name: "relative_end_month"},
				{Name: "relative_end_day"},
			},
			Relationships: []Relationship{
				{Name: "contact", Column: "contact_id", Target: "Person", Display: "Assignee"},
			},
			Projection: titled,
		},
	}
}
