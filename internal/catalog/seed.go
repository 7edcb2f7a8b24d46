package catalog

// DefaultCategories lists the storefront sections.
var DefaultCategories = []Category{
	{Slug: "viennoiseries", Name: "Viennoiseries"},
	{Slug: "pains", Name: "Pains"},
	{Slug: "patisseries", Name: "Pâtisseries"},
	{Slug: "snacking", Name: "Snacking"},
	{Slug: "boissons", Name: "Boissons"},
}

// DefaultProducts is the mock catalogue served by the API. Prices are whole francs.
var DefaultProducts = []Product{
	{ID: "croissant", Name: "Croissant pur beurre", Category: "viennoiseries", Price: 1500, Description: "Feuilletage au beurre AOP", Available: true, Tags: []string{"beurre", "matin"}},
	{ID: "pain-au-chocolat", Name: "Pain au chocolat", Category: "viennoiseries", Price: 1800, Description: "Deux barres de chocolat noir", Available: true, Tags: []string{"chocolat", "matin"}},
	{ID: "chausson-pommes", Name: "Chausson aux pommes", Category: "viennoiseries", Price: 2000, Description: "Compotée de pommes maison", Available: true, Tags: []string{"fruit"}},
	{ID: "baguette-tradition", Name: "Baguette tradition", Category: "pains", Price: 1000, Description: "Levain naturel, farine Label Rouge", Available: true, Tags: []string{"levain"}},
	{ID: "pain-complet", Name: "Pain complet", Category: "pains", Price: 2500, Description: "Farine complète et graines", Available: true, Tags: []string{"graines", "complet"}},
	{ID: "pain-mie", Name: "Pain de mie", Category: "pains", Price: 3000, Description: "Moelleux, idéal pour les tartines", Available: false, Tags: []string{"tartine"}},
	{ID: "eclair-cafe", Name: "Éclair au café", Category: "patisseries", Price: 3500, Description: "Crème pâtissière au café", Available: true, Tags: []string{"cafe"}},
	{ID: "tarte-citron", Name: "Tarte au citron meringuée", Category: "patisseries", Price: 4000, Description: "Citron vert et meringue italienne", Available: true, Tags: []string{"citron", "fruit"}},
	{ID: "mille-feuille", Name: "Mille-feuille", Category: "patisseries", Price: 4500, Description: "Vanille de Madagascar", Available: true, Tags: []string{"vanille"}},
	{ID: "sandwich-poulet", Name: "Sandwich poulet crudités", Category: "snacking", Price: 5000, Description: "Baguette tradition, poulet rôti", Available: true, Tags: []string{"dejeuner"}},
	{ID: "quiche-lorraine", Name: "Quiche lorraine", Category: "snacking", Price: 4500, Description: "Lardons et crème fraîche", Available: true, Tags: []string{"dejeuner"}},
	{ID: "jus-bissap", Name: "Jus de bissap", Category: "boissons", Price: 1500, Description: "Fleurs d'hibiscus infusées", Available: true, Tags: []string{"frais"}},
	{ID: "cafe-creme", Name: "Café crème", Category: "boissons", Price: 1200, Description: "Arabica torréfié sur place", Available: true, Tags: []string{"cafe", "matin"}},
}
