package generator

// luhnDoubleTable maps a digit 0-9 to the digit-sum of its doubled value,
// i.e. digit -> sum_of_digits(digit*2): 0->0,1->2,2->4,3->6,4->8,5->1,
// 6->3,7->5,8->7,9->9.
var luhnDoubleTable = [10]int{0, 2, 4, 6, 8, 1, 3, 5, 7, 9}

// luhnValid sums digits right-to-left, doubling every second digit
// (starting with the second-to-last) and replacing its value with the
// digit-sum of the double, and reports whether the total is divisible by
// 10. Non-digit characters are ignored.
func luhnValid(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d = luhnDoubleTable[d]
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
