package extract

import "strings"

// numericAttrPrefix is prepended to attribute names that start with a digit so the XML
// decoder accepts them. attributeNameDate strips it again.
const numericAttrPrefix = "_d"

// escapeNumericAttrNames rewrites <Date 20230101="80.10"/> as <Date _d20230101="80.10"/>.
// Only attribute names inside start tags are touched; text, attribute values, comments,
// CDATA sections, processing instructions and declarations are copied verbatim.
func escapeNumericAttrNames(s string) string {
	if !strings.ContainsAny(s, "0123456789") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		if s[i] != '<' {
			next := strings.IndexByte(s[i:], '<')
			if next < 0 {
				b.WriteString(s[i:])
				break
			}
			b.WriteString(s[i : i+next])
			i += next
			continue
		}

		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			i += copyThrough(&b, rest, "-->")
		case strings.HasPrefix(rest, "<![CDATA["):
			i += copyThrough(&b, rest, "]]>")
		case strings.HasPrefix(rest, "<?"):
			i += copyThrough(&b, rest, "?>")
		case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "</"):
			i += copyThrough(&b, rest, ">")
		default:
			i += copyStartTag(&b, rest)
		}
	}
	return b.String()
}

// copyThrough writes s up to and including end (or all of s) and returns the bytes consumed.
func copyThrough(b *strings.Builder, s, end string) int {
	j := strings.Index(s, end)
	if j < 0 {
		b.WriteString(s)
		return len(s)
	}
	b.WriteString(s[:j+len(end)])
	return j + len(end)
}

// copyStartTag writes the start tag at the head of s, prefixing digit-leading attribute
// names, and returns the bytes consumed.
func copyStartTag(b *strings.Builder, s string) int {
	var quote byte
	afterSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			b.WriteByte(c)
			return i + 1
		case afterSpace && c >= '0' && c <= '9':
			b.WriteString(numericAttrPrefix)
		}
		afterSpace = quote == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r')
		b.WriteByte(c)
	}
	return len(s)
}

// unescapeAttrName reverses escapeNumericAttrNames for a single attribute name.
func unescapeAttrName(name string) string {
	rest, ok := strings.CutPrefix(name, numericAttrPrefix)
	if ok && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return rest
	}
	return name
}
