// utilitário pequeno para formatar números em headers sem passar por fmt.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

func formatSeconds(secs float64) string {
	return strconv.FormatInt(int64(secs), 10)
}
