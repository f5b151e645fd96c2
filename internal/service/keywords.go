package service

import "strings"

// keywordExpansions maps common resident vocabulary to the domain
// terms municipal budgets actually use. Matching is bidirectional:
// a query containing a key, or contained in one, pulls in the
// synonyms. Loaded once, read only.
var keywordExpansions = map[string][]string{
	"swimming":      {"aquatics", "pool", "swim lessons", "water safety"},
	"pool":          {"aquatics", "swimming", "recreation"},
	"police":        {"law enforcement", "patrol", "public safety", "crime"},
	"cops":          {"police", "law enforcement", "patrol"},
	"crime":         {"police", "law enforcement", "investigations", "public safety"},
	"fire":          {"fire suppression", "emergency response", "fire prevention"},
	"firefighter":   {"fire suppression", "emergency response"},
	"ambulance":     {"emergency medical", "ems", "paramedic"},
	"ems":           {"emergency medical", "ambulance", "paramedic"},
	"911":           {"dispatch", "emergency communications", "public safety"},
	"emergency":     {"emergency response", "dispatch", "public safety", "disaster"},
	"roads":         {"streets", "pavement", "street maintenance", "transportation"},
	"potholes":      {"street maintenance", "pavement", "road repair"},
	"street":        {"roads", "pavement", "right of way", "transportation"},
	"sidewalk":      {"pedestrian", "streets", "right of way"},
	"traffic":       {"transportation", "signals", "street", "engineering"},
	"parking":       {"transportation", "enforcement", "meters"},
	"transit":       {"transportation", "bus", "mobility"},
	"bus":           {"transit", "transportation"},
	"bike":          {"bicycle", "trails", "transportation", "pedestrian"},
	"snow":          {"snow removal", "plowing", "street maintenance"},
	"plow":          {"snow removal", "street maintenance"},
	"water":         {"utilities", "water treatment", "distribution", "stormwater"},
	"sewer":         {"wastewater", "sanitary", "utilities", "collection"},
	"wastewater":    {"sewer", "treatment", "utilities"},
	"stormwater":    {"drainage", "flood", "utilities"},
	"drainage":      {"stormwater", "flood control"},
	"flood":         {"stormwater", "drainage", "emergency management"},
	"trash":         {"solid waste", "garbage", "refuse", "sanitation"},
	"garbage":       {"solid waste", "trash", "refuse", "collection"},
	"recycling":     {"solid waste", "sustainability", "diversion"},
	"compost":       {"solid waste", "organics", "sustainability"},
	"park":          {"parks", "recreation", "open space", "playgrounds"},
	"playground":    {"parks", "recreation"},
	"trees":         {"forestry", "urban forestry", "parks"},
	"forestry":      {"trees", "parks", "natural resources"},
	"trails":        {"parks", "open space", "recreation"},
	"recreation":    {"parks", "programs", "community center", "athletics"},
	"gym":           {"recreation", "fitness", "community center"},
	"sports":        {"athletics", "recreation", "fields"},
	"seniors":       {"senior services", "aging", "community services"},
	"elderly":       {"senior services", "aging"},
	"youth":         {"youth programs", "recreation", "after school"},
	"kids":          {"youth programs", "childcare", "recreation"},
	"daycare":       {"childcare", "youth programs"},
	"library":       {"books", "literacy", "community services"},
	"books":         {"library", "literacy"},
	"museum":        {"arts", "culture", "tourism"},
	"arts":          {"culture", "events", "museum"},
	"events":        {"special events", "culture", "tourism"},
	"tourism":       {"visitors", "economic development", "events"},
	"homeless":      {"housing", "human services", "shelter"},
	"shelter":       {"homeless", "housing", "human services"},
	"housing":       {"affordable housing", "community development", "human services"},
	"rent":          {"housing", "affordable housing"},
	"poverty":       {"human services", "assistance", "community services"},
	"food":          {"human services", "assistance", "health"},
	"health":        {"public health", "clinics", "human services"},
	"clinic":        {"public health", "health services"},
	"mental health": {"behavioral health", "human services", "crisis"},
	"animals":       {"animal control", "animal services", "shelter"},
	"dogs":          {"animal control", "animal services"},
	"pets":          {"animal control", "animal services"},
	"zoning":        {"planning", "land use", "development review"},
	"permits":       {"development review", "inspections", "licensing"},
	"building":      {"inspections", "permits", "code enforcement"},
	"code":          {"code enforcement", "inspections", "compliance"},
	"inspection":    {"inspections", "code enforcement", "permits"},
	"business":      {"economic development", "licensing", "permits"},
	"jobs":          {"economic development", "workforce"},
	"taxes":         {"finance", "revenue", "assessment"},
	"budget":        {"finance", "accounting"},
	"elections":     {"clerk", "voting", "records"},
	"voting":        {"elections", "clerk"},
	"records":       {"clerk", "archives", "licensing"},
	"court":         {"municipal court", "judicial", "prosecution"},
	"lawyer":        {"legal", "attorney", "prosecution"},
	"legal":         {"attorney", "prosecution", "claims"},
	"it":            {"information technology", "technology", "systems"},
	"computers":     {"information technology", "technology"},
	"website":       {"information technology", "communications"},
	"hr":            {"human resources", "personnel", "benefits"},
	"hiring":        {"human resources", "personnel"},
	"mayor":         {"city council", "administration", "governance"},
	"council":       {"city council", "governance", "administration"},
	"cemetery":      {"cemetery services", "grounds"},
	"airport":       {"aviation", "transportation"},
	"golf":          {"golf course", "recreation", "enterprise"},
	"lights":        {"street lighting", "utilities", "traffic"},
	"graffiti":      {"code enforcement", "maintenance", "public works"},
	"weeds":         {"code enforcement", "grounds maintenance"},
	"mosquito":      {"vector control", "public health"},
	"energy":        {"sustainability", "utilities", "facilities"},
	"climate":       {"sustainability", "environment", "resilience"},
	"environment":   {"sustainability", "natural resources", "stormwater"},
}

// ExpandQuery turns a free-text query into the set of terms to match
// against program and category text. The raw query is always included;
// table keys matching the query by substring in either direction
// contribute their synonym lists. All terms come back lowercased and
// deduplicated.
func ExpandQuery(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	seen := map[string]bool{q: true}
	terms := []string{q}

	add := func(t string) {
		t = strings.ToLower(t)
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for key, synonyms := range keywordExpansions {
		if strings.Contains(q, key) || strings.Contains(key, q) {
			add(key)
			for _, s := range synonyms {
				add(s)
			}
		}
	}
	return terms
}
