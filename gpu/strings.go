package gpu

const (
	end     = "\x00"
	endChar = '\x00'
)

// safeString returns s terminated by a NUL byte as the C API expects.
func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}
