package dock

// ThicknessSlack is added on top of icon, padding and border sizes to cover
// the dock's own background and shadow.
const ThicknessSlack = 12

// Thickness returns the synthetic dock thickness for the given icon size,
// inner padding and border width.
func Thickness(iconSize, padding, borderWidth int) int {
	if iconSize < 0 {
		iconSize = 0
	}
	if padding < 0 {
		padding = 0
	}
	if borderWidth < 0 {
		borderWidth = 0
	}
	return iconSize + 2*padding + 2*borderWidth + ThicknessSlack
}
