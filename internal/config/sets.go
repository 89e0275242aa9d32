package config

// Prepared Rector set names accepted by --sets, in display order.
const (
	SetAll                 = "all"
	SetDeadCode            = "deadCode"
	SetCodeQuality         = "codeQuality"
	SetCodingStyle         = "codingStyle"
	SetTypeDeclarations    = "typeDeclarations"
	SetPrivatization       = "privatization"
	SetNaming              = "naming"
	SetInstanceOf          = "instanceOf"
	SetEarlyReturn         = "earlyReturn"
	SetStrictBooleans      = "strictBooleans"
	SetCarbon              = "carbon"
	SetRectorPreset        = "rectorPreset"
	SetPHPUnitCodeQuality  = "phpunitCodeQuality"
	SetDoctrineCodeQuality = "doctrineCodeQuality"
	SetSymfonyCodeQuality  = "symfonyCodeQuality"
	SetSymfonyConfigs      = "symfonyConfigs"
)

var preparedSets = []string{
	SetAll,
	SetDeadCode,
	SetCodeQuality,
	SetCodingStyle,
	SetTypeDeclarations,
	SetPrivatization,
	SetNaming,
	SetInstanceOf,
	SetEarlyReturn,
	SetStrictBooleans,
	SetCarbon,
	SetRectorPreset,
	SetPHPUnitCodeQuality,
	SetDoctrineCodeQuality,
	SetSymfonyCodeQuality,
	SetSymfonyConfigs,
}

// Sets that take a ":<level>" suffix instead of being switched on wholesale.
var levelSets = []string{SetDeadCode, SetCodeQuality, SetCodingStyle, SetTypeDeclarations}

// PreparedSets returns every set name, "all" first.
func PreparedSets() []string {
	out := make([]string, len(preparedSets))
	copy(out, preparedSets)
	return out
}

// LevelSets returns the set names that accept a level.
func LevelSets() []string {
	out := make([]string, len(levelSets))
	copy(out, levelSets)
	return out
}

func isPreparedSet(name string) bool { return contains(preparedSets, name) }

func isLevelSet(name string) bool { return contains(levelSets, name) }

// Symfony versions accepted by --with-symfony.
var symfonyVersions = []string{
	"2.5", "2.6", "2.7", "2.8",
	"3.0", "3.1", "3.2", "3.3", "3.4",
	"4.0", "4.1", "4.2", "4.3", "4.4",
	"5.0", "5.1", "5.2", "5.3", "5.4",
	"6.0", "6.1", "6.2", "6.3", "6.4",
	"7.0", "7.1", "7.2", "7.3", "7.4",
}

// SymfonyVersions returns the accepted --with-symfony values.
func SymfonyVersions() []string {
	out := make([]string, len(symfonyVersions))
	copy(out, symfonyVersions)
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
