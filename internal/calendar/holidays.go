package calendar

// DefaultHolidays returns the exchange holiday closures for 2024-2026.
// Weekends inside a closure are listed too; they are harmless.
func DefaultHolidays() []string {
	return []string{
		// 2024
		"20240101",
		"20240210", "20240211", "20240212", "20240213", "20240214", "20240215", "20240216", "20240217", // 춘절
		"20240404", "20240405", "20240406", // 청명절
		"20240501", "20240502", "20240503", // 노동절
		"20240610",                         // 단오절
		"20240915", "20240916", "20240917", // 중추절
		"20241001", "20241002", "20241003", "20241004", "20241005", "20241006", "20241007", // 국경절

		// 2025
		"20250101",
		"20250128", "20250129", "20250130", "20250131", "20250201", "20250202", "20250203", "20250204",
		"20250404", "20250405", "20250406", "20250407",
		"20250501", "20250502", "20250503",
		"20250531",
		"20251001", "20251002", "20251003", "20251004", "20251005", "20251006", "20251007", "20251008",

		// 2026
		"20260101",
		"20260216", "20260217", "20260218", "20260219", "20260220", "20260221", "20260222", "20260223",
	}
}
