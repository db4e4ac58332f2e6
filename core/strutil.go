package core

// itoa formats n in decimal. Debug and event output use it instead of
// strconv so the firmware image stays small.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	width := 0
	for v := n; v > 0; v /= 10 {
		width++
	}
	if neg {
		width++
	}

	buf := make([]byte, width)
	for i := width - 1; n > 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		buf[0] = '-'
	}
	return string(buf)
}

// utoa is itoa for counters and timestamps
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	width := 0
	for v := n; v > 0; v /= 10 {
		width++
	}

	buf := make([]byte, width)
	for i := width - 1; n > 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf)
}
