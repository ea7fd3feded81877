package oci

// ParameterError represents an error with parameter binding
type ParameterError struct {
	Name    string
	Message string
}

func (e *ParameterError) Error() string {
	if e.Name != "" {
		return "parameter '" + e.Name + "': " + e.Message
	}
	return "parameter: " + e.Message
}

// Placeholders holds the bind placeholders found in a statement
type Placeholders struct {
	// Names contains the placeholder names without the colon, in order of first appearance.
	// Numeric placeholders such as :1 are listed by their digits.
	Names []string

	// Positions maps each name to the 0-based positions it occupies among all placeholders.
	// A single name may appear multiple times in the statement.
	Positions map[string][]int
}

// Count returns the number of distinct placeholders, the number of values a caller binds
func (p *Placeholders) Count() int {
	if p == nil {
		return 0
	}
	return len(p.Names)
}

// Index returns the first-appearance index of name, or -1
func (p *Placeholders) Index(name string) int {
	if p == nil {
		return -1
	}
	for i, n := range p.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// ParsePlaceholders scans a statement for :name and :1 style placeholders.
// String literals, quoted identifiers, q'...' literals and comments are skipped.
// Returns nil if the statement has no placeholders.
func ParsePlaceholders(query string) *Placeholders {
	if len(query) == 0 {
		return nil
	}

	result := &Placeholders{
		Positions: make(map[string][]int),
	}

	position := 0
	i := 0
	for i < len(query) {
		c := query[i]

		// Alternative quoting: q'[...]', q'{...}', q'<...>', q'(...)' or q'x...x'
		if (c == 'q' || c == 'Q') && i+2 < len(query) && query[i+1] == '\'' && (i == 0 || !isIdentChar(query[i-1])) {
			closer := quoteCloser(query[i+2])
			i += 3
			for i+1 < len(query) && (query[i] != closer || query[i+1] != '\'') {
				i++
			}
			i += 2
			continue
		}

		// Skip string literals (single quotes)
		if c == '\'' {
			i = skipQuoted(query, i, '\'')
			continue
		}

		// Skip quoted identifiers
		if c == '"' {
			i = skipQuoted(query, i, '"')
			continue
		}

		// Skip comments (-- style)
		if c == '-' && i+1 < len(query) && query[i+1] == '-' {
			for i < len(query) && query[i] != '\n' {
				i++
			}
			continue
		}

		// Skip comments (/* */ style)
		if c == '/' && i+1 < len(query) && query[i+1] == '*' {
			i += 2
			for i+1 < len(query) && (query[i] != '*' || query[i+1] != '/') {
				i++
			}
			i += 2
			continue
		}

		if c == ':' && i+1 < len(query) && (isIdentStart(query[i+1]) || isDigit(query[i+1])) {
			start := i + 1
			end := start + 1
			for end < len(query) && isIdentChar(query[end]) {
				end++
			}
			name := query[start:end]

			if _, seen := result.Positions[name]; !seen {
				result.Names = append(result.Names, name)
			}
			result.Positions[name] = append(result.Positions[name], position)
			position++
			i = end
			continue
		}

		i++
	}

	if len(result.Names) == 0 {
		return nil
	}
	return result
}

// skipQuoted returns the index after the quoted section starting at i.
// A doubled quote character is an escaped quote.
func skipQuoted(query string, i int, quote byte) int {
	i++
	for i < len(query) {
		if query[i] == quote {
			if i+1 < len(query) && query[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func quoteCloser(open byte) byte {
	switch open {
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	case '(':
		return ')'
	}
	return open
}

// isIdentStart returns true if c is a valid identifier start character
func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isIdentChar returns true if c is a valid identifier character
func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$' || c == '#'
}
