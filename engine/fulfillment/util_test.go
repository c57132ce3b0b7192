package fulfillment

import "strconv"

func formatHeight(height uint64) string {
	return strconv.FormatUint(height, 10)
}
