// Package vocab holds the keyword vocabularies the category mapper matches
// against: expense-category slugs and income-source slugs, each with the raw
// keywords users actually type. Deployments can extend the built-in tables
// through a YAML file without recompiling.
package vocab

// Entry maps a canonical slug to the keywords that select it.
type Entry struct {
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

// Vocabulary is an ordered keyword table for one target domain. Order matters
// only for deterministic iteration; matching ties are broken by keyword length.
type Vocabulary struct {
	Entries []Entry
}

// Slugs returns the distinct slugs in table order.
func (v Vocabulary) Slugs() []string {
	slugs := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		slugs = append(slugs, e.Slug)
	}
	return slugs
}

// Merge appends entries from other, folding keywords into existing slugs.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	index := make(map[string]int, len(v.Entries))
	merged := make([]Entry, len(v.Entries))
	for i, e := range v.Entries {
		merged[i] = Entry{Slug: e.Slug, Keywords: append([]string{}, e.Keywords...)}
		index[e.Slug] = i
	}
	for _, e := range other.Entries {
		if i, ok := index[e.Slug]; ok {
			merged[i].Keywords = append(merged[i].Keywords, e.Keywords...)
			continue
		}
		index[e.Slug] = len(merged)
		merged = append(merged, Entry{Slug: e.Slug, Keywords: append([]string{}, e.Keywords...)})
	}
	return Vocabulary{Entries: merged}
}

// DefaultExpenseCategories is the built-in expense vocabulary. Keywords lean
// toward the Bangladeshi home market (bazar, rickshaw, CNG) with common
// international merchants mixed in.
func DefaultExpenseCategories() Vocabulary {
	return Vocabulary{Entries: []Entry{
		{Slug: "groceries", Keywords: []string{"grocery", "groceries", "supermarket", "bazar", "bazaar", "vegetables", "fish market", "meena bazar", "shwapno"}},
		{Slug: "transport", Keywords: []string{"uber", "pathao", "taxi", "bus fare", "rickshaw", "cng", "train ticket", "fuel", "petrol"}},
		{Slug: "dining", Keywords: []string{"restaurant", "lunch", "dinner", "breakfast", "coffee", "cafe", "biryani", "food delivery", "foodpanda"}},
		{Slug: "entertainment", Keywords: []string{"netflix", "movie", "cinema", "concert", "spotify", "game", "streaming"}},
		{Slug: "utilities", Keywords: []string{"electricity", "electric bill", "water bill", "gas bill", "internet", "wifi", "broadband", "mobile recharge", "phone bill"}},
		{Slug: "rent", Keywords: []string{"rent", "house rent", "flat rent", "landlord"}},
		{Slug: "health", Keywords: []string{"doctor", "medicine", "pharmacy", "hospital", "clinic", "checkup"}},
		{Slug: "education", Keywords: []string{"tuition", "course", "books", "exam fee", "school fee", "university"}},
		{Slug: "shopping", Keywords: []string{"shopping", "clothes", "shoes", "daraz", "amazon", "electronics", "gadget"}},
		{Slug: "personal", Keywords: []string{"haircut", "salon", "gym", "subscription"}},
	}}
}

// DefaultIncomeSources is the built-in income vocabulary.
func DefaultIncomeSources() Vocabulary {
	return Vocabulary{Entries: []Entry{
		{Slug: "salary", Keywords: []string{"salary", "wage", "payroll", "monthly pay"}},
		{Slug: "business", Keywords: []string{"business", "sale", "profit", "shop income"}},
		{Slug: "freelance", Keywords: []string{"freelance", "freelancing", "client payment", "upwork", "fiverr", "project payment"}},
		{Slug: "gift", Keywords: []string{"gift", "eidi", "salami", "donation received"}},
		{Slug: "investment", Keywords: []string{"dividend", "interest", "profit share", "dps", "fdr"}},
	}}
}
