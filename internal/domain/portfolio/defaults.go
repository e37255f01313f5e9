package portfolio

// DefaultDocument returns the content served before the owner has saved
// anything and restored by a reset. Each call returns a fresh copy.
func DefaultDocument() Document {
	return Document{
		Personal: Personal{
			Name:     "DIO",
			Title:    "Full Stack Developer",
			Location: "Your Location",
			Email:    PlaceholderEmail,
			Phone:    "+1 (234) 567-8900",
			HeroBio:  "I build fast, reliable web applications and the services behind them.",
			Bio:      "Tell visitors who you are, what you work on and what you are looking for next.",
		},
		Social: Social{
			GitHub:   "https://github.com/",
			LinkedIn: "https://linkedin.com/",
			Email:    PlaceholderEmail,
		},
		Skills: []Skill{
			{Name: "JavaScript", Level: 90, Order: 0},
			{Name: "React", Level: 85, Order: 1},
			{Name: "Node.js", Level: 80, Order: 2},
			{Name: "Go", Level: 75, Order: 3},
			{Name: "PostgreSQL", Level: 70, Order: 4},
		},
		Projects: []Project{
			{
				Title:        "Portfolio Website",
				Description:  "A personal site with an admin dashboard for editing its content.",
				Images:       []string{},
				Technologies: []string{"React", "Go", "PostgreSQL"},
				Order:        0,
			},
			{
				Title:        "Task Manager",
				Description:  "A collaborative task board with real-time updates.",
				Images:       []string{},
				Technologies: []string{"TypeScript", "Redis"},
				Order:        1,
			},
		},
		Experience: []Experience{
			{
				Role:        "Software Engineer",
				Company:     "Company Name",
				Period:      "2022 - Present",
				Description: "Describe your responsibilities and achievements.",
				Order:       0,
			},
		},
		Education: []Education{
			{Degree: "B.Sc. Computer Science", Institution: "University Name", Period: "2018 - 2022", Order: 0},
		},
		Certificates: []Certificate{},
		Gallery:      []GalleryItem{},
	}
}
