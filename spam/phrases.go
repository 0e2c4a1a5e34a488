package spam

// spamPhrases are matched case-insensitively by the fallback heuristic.
// Sourced from common unsolicited-marketing and scam wording; extend it
// together with the recorded spam_check rows when tuning.
var spamPhrases = []string{
	"100% free",
	"100% satisfied",
	"act now",
	"additional income",
	"amazing deal",
	"apply now",
	"be your own boss",
	"best price",
	"billion dollars",
	"buy direct",
	"buy now",
	"call now",
	"cash bonus",
	"casino",
	"cheap meds",
	"claim your prize",
	"click below",
	"click here",
	"congratulations you",
	"credit card required",
	"crypto giveaway",
	"dear friend",
	"discount offer",
	"double your income",
	"earn extra cash",
	"earn money fast",
	"exclusive deal",
	"extra income",
	"fast cash",
	"financial freedom",
	"free access",
	"free gift",
	"free membership",
	"free money",
	"free trial",
	"get paid",
	"get rich quick",
	"guaranteed income",
	"hidden charges",
	"hot singles",
	"increase sales",
	"instant approval",
	"investment opportunity",
	"limited time offer",
	"lose weight fast",
	"lowest price",
	"make money online",
	"miracle cure",
	"money back guarantee",
	"no credit check",
	"no obligation",
	"once in a lifetime",
	"online pharmacy",
	"order now",
	"risk free",
	"satisfaction guaranteed",
	"special promotion",
	"this is not spam",
	"while supplies last",
	"winner winner",
	"work from home",
	"you have been selected",
}
