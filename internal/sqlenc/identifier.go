package sqlenc

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// QuoteIdentifier wraps a table or column name in backticks. Names that
// would need escaping inside the quotes are rejected.
func QuoteIdentifier(name string) (string, error) {
	if name == "" {
		return "", configErrorf("identifier must not be empty")
	}
	if strings.ContainsRune(name, '`') {
		return "", configErrorf("identifier %q contains a backtick", name)
	}
	return "`" + name + "`", nil
}

// ColumnNames renders the schema's field names as a comma separated list of
// quoted identifiers, suitable for NewAssembler.
func ColumnNames(schema *arrow.Schema) (string, error) {
	fields := schema.Fields()
	quoted := make([]string, len(fields))
	for i, f := range fields {
		q, err := QuoteIdentifier(f.Name)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return strings.Join(quoted, ","), nil
}
