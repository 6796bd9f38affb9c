package selection

import (
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

var num = contracts.Num

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

// openFields is the column set of a live session snapshot
var openFields = []contracts.Field{
	contracts.FieldCode, contracts.FieldName, contracts.FieldPrice, contracts.FieldPrevClose,
	contracts.FieldGain, contracts.FieldTurnover, contracts.FieldVolumeRatio,
	contracts.FieldFloatMarketCap, contracts.FieldPE,
}

func newTable(fields []contracts.Field, records ...contracts.SecurityRecord) *contracts.Table {
	t := contracts.NewTable(fields...)
	t.Records = records
	return t
}

// liveRecord returns a row that passes the default profile's full screen
func liveRecord(code string) contracts.SecurityRecord {
	return contracts.SecurityRecord{
		Code:           code,
		Name:           "股票" + code,
		Price:          num(10),
		PrevClose:      num(9.8),
		Gain:           num(3),
		Turnover:       num(5),
		VolumeRatio:    num(2),
		FloatMarketCap: num(5e9),
		PE:             num(20),
	}
}

func codesOf(scored []contracts.ScoredRecord) []string {
	codes := make([]string, len(scored))
	for i := range scored {
		codes[i] = scored[i].Code
	}
	return codes
}
