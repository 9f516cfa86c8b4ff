package transaction

import (
	"fmt"
	"sort"
	"strings"
)

const serializePrefix = "icx_sendTransaction"

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
)

// Serialize ICON v3 交易的规范化序列化:
// icx_sendTransaction.k1.v1.k2.v2 ... 键按字典序, 对象 {k.v}, 数组 [a.b], nil 为 \0
// signature / txHash 不参与序列化
func Serialize(params map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString(serializePrefix)
	for _, k := range sortedKeys(params) {
		if k == "signature" || k == "txHash" {
			continue
		}
		sb.WriteByte('.')
		sb.WriteString(k)
		sb.WriteByte('.')
		writeValue(&sb, params[k])
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, v interface{}) {
	switch t := v.(type) {
	case nil:
		sb.WriteString(`\0`)
	case string:
		sb.WriteString(escaper.Replace(t))
	case map[string]interface{}:
		sb.WriteByte('{')
		for i, k := range sortedKeys(t) {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(k)
			sb.WriteByte('.')
			writeValue(sb, t[k])
		}
		sb.WriteByte('}')
	case map[string]string:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = e
		}
		writeValue(sb, m)
	case []interface{}:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte('.')
			}
			writeValue(sb, e)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(escaper.Replace(fmt.Sprint(t)))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
