package rules

import "strconv"

func itoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }
