package search

// indexMapping is the full settings+mappings body for the listings
// index.  The food_analyzer folds plural/colloquial food terms together
// (a query for "bread" must match a description saying "baked goods"),
// and title carries a raw keyword sub-field for exact filtering.
const indexMapping = `{
  "settings": {
    "analysis": {
      "analyzer": {
        "food_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "stop", "snowball", "food_synonyms"]
        }
      },
      "filter": {
        "food_synonyms": {
          "type": "synonym",
          "synonyms": [
            "vegetable, vegetables, veggies",
            "fruit, fruits",
            "bread, breads, baked goods",
            "meal, food, dish",
            "soup, broth",
            "rice, grain"
          ]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "listing_id":    { "type": "keyword" },
      "title":         { "type": "text", "analyzer": "food_analyzer", "fields": { "keyword": { "type": "keyword" } } },
      "description":   { "type": "text", "analyzer": "food_analyzer" },
      "category_name": { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "quantity_kg":   { "type": "float" },
      "feeds_people":  { "type": "integer" },
      "best_before":   { "type": "date" },
      "status":        { "type": "keyword" },
      "location":      { "type": "geo_point" },
      "donor_name":    { "type": "text" },
      "created_at":    { "type": "date" }
    }
  }
}`
