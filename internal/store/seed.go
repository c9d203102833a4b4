package store

// DefaultProducts is the stock catalog loaded on first start.
var DefaultProducts = []Product{
	{ID: "s001", Name: "Hybrid Paddy Seeds (1kg)", Category: CategorySeeds, Price: 350,
		Image:    "https://images.unsplash.com/photo-1586201375761-83865001e31c?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"rice", "paddy", "dhaan", "chawal", "seeds", "beej"}},
	{ID: "s002", Name: "High-Yield Wheat Seeds (1kg)", Category: CategorySeeds, Price: 150,
		Image:    "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"wheat", "gehu", "seeds", "beej"}},
	{ID: "s003", Name: "Organic Vegetable Seeds Pack", Category: CategorySeeds, Price: 500,
		Image:    "https://images.unsplash.com/photo-1591986475730-e37349d9709a?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"vegetable", "sabji", "tomato", "brinjal", "seeds", "beej", "organic"}},
	{ID: "s004", Name: "Maize/Corn Seeds (500g)", Category: CategorySeeds, Price: 220,
		Image:    "https://images.unsplash.com/photo-1629822459737-29e017834515?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"maize", "corn", "makka", "bhutta", "seeds", "beej"}},
	{ID: "f001", Name: "Urea Fertilizer (45kg Bag)", Category: CategoryFertilizers, Price: 267,
		Image:    "https://images.unsplash.com/photo-1592982537447-7440770cbfc9?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"urea", "fertilizer", "khaad", "nitrogen"}},
	{ID: "f002", Name: "DAP Fertilizer (50kg Bag)", Category: CategoryFertilizers, Price: 1350,
		Image:    "https://images.unsplash.com/photo-1628352081506-83c43123ed6d?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"dap", "fertilizer", "khaad", "phosphorus"}},
	{ID: "f003", Name: "Organic Neem Pesticide (1L)", Category: CategoryFertilizers, Price: 450,
		Image:    "https://images.unsplash.com/photo-1615485290382-441e4d049cb5?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"neem", "pesticide", "keetnashak", "organic", "spray"}},
	{ID: "f004", Name: "Vermicompost (5kg)", Category: CategoryFertilizers, Price: 250,
		Image:    "https://images.unsplash.com/photo-1585314540237-13cb52fe9998?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"vermicompost", "compost", "khaad", "organic", "kenchua"}},
	{ID: "t001", Name: "Steel Hand Trowel (Khurpi)", Category: CategoryTools, Price: 180,
		Image:    "https://images.unsplash.com/photo-1617576683096-00fc8eecb3af?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"khurpi", "trowel", "tool", "aujar", "gardening"}},
	{ID: "t002", Name: "Battery Sprayer Pump (16L)", Category: CategoryTools, Price: 2500,
		Image:    "https://images.unsplash.com/photo-1599076480086-hs34d9f8d1c4?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"sprayer", "pump", "spray", "battery", "keetnashak"}},
	{ID: "t003", Name: "Pruning Shears (Secateurs)", Category: CategoryTools, Price: 550,
		Image:    "https://images.unsplash.com/photo-1589111118344-fe616859d7a7?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"pruning", "shears", "secateurs", "cutter", "kainchi"}},
	{ID: "i001", Name: "Drip Irrigation Starter Kit", Category: CategoryIrrigation, Price: 3200,
		Image:    "https://images.unsplash.com/photo-1621149437156-a1f7a6e5b7f9?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"drip", "irrigation", "sinchai", "water", "pani", "kit"}},
	{ID: "i002", Name: "Sprinkler Set (10 Nozzles)", Category: CategoryIrrigation, Price: 1800,
		Image:    "https://images.unsplash.com/photo-1563514227147-6d2ff665a6a0?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"sprinkler", "irrigation", "sinchai", "water", "pani", "fuhara"}},
	{ID: "i003", Name: "HDPE Water Pipe (30m)", Category: CategoryIrrigation, Price: 1100,
		Image:    "https://images.unsplash.com/photo-1585704032915-c3400305e979?auto=format&fit=crop&q=80&w=600",
		Keywords: []string{"pipe", "water", "pani", "hdpe", "irrigation", "sinchai"}},
}
