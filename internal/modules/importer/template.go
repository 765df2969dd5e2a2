package importer

// SampleTemplate returns the application-native import template. The columns
// match the native alias table, so a downloaded template filled in by hand
// (or a previous export) re-imports without loss.
func SampleTemplate() string {
	return `symbol,type,instrumentType,entryPrice,exitPrice,quantity,entryDate,exitDate,profitLoss,notes,sector,strikePrice,optionType,expiryDate
RELIANCE,LONG,STOCK,2450.50,2510.25,10,2025-06-02,2025-06-05,597.50,Breakout over previous swing high,Energy,,,
NIFTY,LONG,OPTIONS,145.25,210.80,75,2025-06-10,2025-06-12,4916.25,Weekly expiry momentum,,24900,PUT,2025-06-12
TCS,SHORT,STOCK,3850.00,3790.00,25,2025-06-18,2025-06-19,1500.00,Rejection at resistance,IT,,,
`
}
