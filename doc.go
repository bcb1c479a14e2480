/*
Package bulba reads and writes BULBA, an indentation-based configuration
format with a fixed, themed vocabulary. The API mirrors the standard
`encoding/json` package.

A document starts with the header line `BULBA!`. Every later line is blank,
a comment (from `zZz` to the end of the line), a section header or an
assignment:

	BULBA!
	app_name ~~> "Pokedex_API"
	whitelist ~~> <| "Prof_Oak", "Mom" |>
	(o) database (o)
	    host ~~> "127.0.0.1"
	    (O) pool (O)
	        max_connections ~~> 100

Sections nest at most three deep, written `(o)`, `(O)` and `(@)`, each
indented four spaces per level. Values are double-quoted strings, numbers,
`SuperEffective` and `NotVeryEffective` for true and false, `MissingNo` for
null, and arrays between `<|` and `|>`. The key `Charizard` is reserved.

The package offers two workflows.

1. Document trees

ParseBytes (or the ReadLines, Lex and Parse steps it glues together)
returns a *value.Value tree whose root is always a map.
ToCanonicalString renders a tree in the canonical `key: value` layout with
sorted keys, and Format re-emits BULBA source.

	doc, err := bulba.ParseBytes(src)
	if err != nil {
		// err unwraps to one of the kinds in the errors package
	}
	host, _ := doc.Lookup("database", "host")

2. Go values

Unmarshal and Marshal convert between documents and Go values:

	type Config struct {
		AppName  string   `bulba:"app_name"`
		Database struct {
			Host string `bulba:"host"`
		} `bulba:"database"`
	}

	var cfg Config
	if err := bulba.Unmarshal(src, &cfg); err != nil {
		// handle error
	}

Customization is available via struct field tags (e.g., `bulba:"key,omitempty"`)
and by implementing the bulba.Marshaler and bulba.Unmarshaler interfaces.
*/
package bulba
