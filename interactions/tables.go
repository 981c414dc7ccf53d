package interactions

import "github.com/medhub/medhub-api/entities"

// interactionTable holds the known interactions, each pair recorded once
// under one arbitrary ordering. Keys are lower-case.
var interactionTable = map[string]map[string]entities.DrugInteraction{
	"warfarin": {
		"aspirin": {
			Severity:       entities.SeverityHigh,
			Description:    "Aspirin increases the anticoagulant effect of warfarin and damages the stomach lining, sharply raising the risk of serious bleeding.",
			Recommendation: "Avoid combining unless prescribed together. Watch for unusual bruising, black stools or blood in urine and contact your doctor immediately if they occur.",
		},
		"ibuprofen": {
			Severity:       entities.SeverityHigh,
			Description:    "Ibuprofen combined with warfarin increases the risk of gastrointestinal bleeding.",
			Recommendation: "Prefer paracetamol for pain relief. If an NSAID is required, your doctor should monitor your INR closely.",
		},
		"amiodarone": {
			Severity:       entities.SeverityHigh,
			Description:    "Amiodarone slows the breakdown of warfarin, which can double its effect over several weeks.",
			Recommendation: "Your warfarin dose usually needs to be reduced. Have your INR checked frequently after starting amiodarone.",
		},
		"fluconazole": {
			Severity:       entities.SeverityHigh,
			Description:    "Fluconazole inhibits warfarin metabolism and can cause dangerous bleeding.",
			Recommendation: "Tell your prescriber you take warfarin before any antifungal course; INR monitoring is required.",
		},
		"metronidazole": {
			Severity:       entities.SeverityHigh,
			Description:    "Metronidazole strongly increases warfarin levels in the blood.",
			Recommendation: "Use an alternative antibiotic where possible, otherwise monitor INR closely during and after the course.",
		},
	},
	"aspirin": {
		"clopidogrel": {
			Severity:       entities.SeverityModerate,
			Description:    "Two antiplatelet medicines together increase the risk of bleeding.",
			Recommendation: "This combination is sometimes prescribed on purpose after heart procedures. Do not start or stop either medicine without medical advice.",
		},
		"methotrexate": {
			Severity:       entities.SeverityHigh,
			Description:    "Aspirin reduces the elimination of methotrexate and can lead to toxic levels.",
			Recommendation: "Avoid regular aspirin use while on methotrexate unless your specialist approves it.",
		},
	},
	"lisinopril": {
		"spironolactone": {
			Severity:       entities.SeverityHigh,
			Description:    "Both medicines raise potassium levels and together can cause dangerous hyperkalemia.",
			Recommendation: "Regular blood tests for potassium and kidney function are needed. Avoid potassium supplements and salt substitutes.",
		},
		"potassium": {
			Severity:       entities.SeverityModerate,
			Description:    "ACE inhibitors reduce potassium excretion; supplements can push potassium too high.",
			Recommendation: "Only take potassium supplements if prescribed, and have your levels checked.",
		},
		"lithium": {
			Severity:       entities.SeverityModerate,
			Description:    "Lisinopril can increase lithium levels in the blood.",
			Recommendation: "Lithium levels should be monitored when starting or changing the dose of lisinopril.",
		},
	},
	"simvastatin": {
		"clarithromycin": {
			Severity:       entities.SeverityHigh,
			Description:    "Clarithromycin greatly increases simvastatin levels, raising the risk of muscle damage (rhabdomyolysis).",
			Recommendation: "Simvastatin is usually paused during a clarithromycin course. Ask your doctor.",
		},
		"amiodarone": {
			Severity:       entities.SeverityModerate,
			Description:    "Amiodarone increases simvastatin exposure and the risk of muscle pain or damage.",
			Recommendation: "The simvastatin dose should not exceed 20 mg daily with amiodarone. Report unexplained muscle pain.",
		},
		"grapefruit": {
			Severity:       entities.SeverityModerate,
			Description:    "Grapefruit juice blocks the enzyme that breaks down simvastatin.",
			Recommendation: "Avoid large amounts of grapefruit or grapefruit juice.",
		},
	},
	"sertraline": {
		"tramadol": {
			Severity:       entities.SeverityHigh,
			Description:    "Both medicines increase serotonin and together can cause serotonin syndrome and seizures.",
			Recommendation: "Avoid this combination if possible. Seek urgent care for agitation, fever, tremor or fast heartbeat.",
		},
		"sumatriptan": {
			Severity:       entities.SeverityModerate,
			Description:    "Combining an SSRI with a triptan can increase the risk of serotonin syndrome.",
			Recommendation: "Use the lowest effective triptan dose and watch for symptoms such as confusion or muscle twitching.",
		},
	},
	"fluoxetine": {
		"tramadol": {
			Severity:       entities.SeverityHigh,
			Description:    "Fluoxetine increases serotonin effects and blocks tramadol activation, raising seizure and serotonin syndrome risk.",
			Recommendation: "Ask your doctor for an alternative painkiller.",
		},
	},
	"digoxin": {
		"amiodarone": {
			Severity:       entities.SeverityHigh,
			Description:    "Amiodarone raises digoxin levels and can cause digoxin toxicity.",
			Recommendation: "The digoxin dose is usually halved. Report nausea, visual changes or an irregular heartbeat.",
		},
		"furosemide": {
			Severity:       entities.SeverityModerate,
			Description:    "Furosemide can lower potassium, which makes digoxin toxicity more likely.",
			Recommendation: "Potassium levels should be checked regularly.",
		},
	},
	"levothyroxine": {
		"calcium": {
			Severity:       entities.SeverityModerate,
			Description:    "Calcium binds levothyroxine in the gut and reduces its absorption.",
			Recommendation: "Take levothyroxine at least 4 hours apart from calcium supplements.",
		},
		"iron": {
			Severity:       entities.SeverityModerate,
			Description:    "Iron reduces levothyroxine absorption.",
			Recommendation: "Separate doses by at least 4 hours.",
		},
		"coffee": {
			Severity:       entities.SeverityLow,
			Description:    "Coffee taken at the same time can slightly reduce levothyroxine absorption.",
			Recommendation: "Take levothyroxine with water, 30 to 60 minutes before coffee or breakfast.",
		},
	},
	"ciprofloxacin": {
		"theophylline": {
			Severity:       entities.SeverityHigh,
			Description:    "Ciprofloxacin raises theophylline levels and can cause seizures or heart rhythm problems.",
			Recommendation: "An alternative antibiotic is usually preferred; otherwise theophylline levels must be monitored.",
		},
	},
	"sildenafil": {
		"nitroglycerin": {
			Severity:       entities.SeverityHigh,
			Description:    "Combining sildenafil with nitrates can cause a sudden, life-threatening drop in blood pressure.",
			Recommendation: "Never take these together. Allow at least 24 hours between sildenafil and any nitrate.",
		},
		"isosorbide": {
			Severity:       entities.SeverityHigh,
			Description:    "Combining sildenafil with nitrates can cause a sudden, life-threatening drop in blood pressure.",
			Recommendation: "Never take these together.",
		},
	},
	"clopidogrel": {
		"omeprazole": {
			Severity:       entities.SeverityModerate,
			Description:    "Omeprazole reduces the activation of clopidogrel and may lower its protective effect.",
			Recommendation: "Ask whether pantoprazole would be a suitable alternative stomach protector.",
		},
	},
	"lithium": {
		"ibuprofen": {
			Severity:       entities.SeverityHigh,
			Description:    "NSAIDs reduce lithium excretion and can lead to lithium toxicity.",
			Recommendation: "Avoid regular NSAID use; if needed, lithium levels must be checked.",
		},
	},
	"metformin": {
		"alcohol": {
			Severity:       entities.SeverityModerate,
			Description:    "Heavy alcohol intake with metformin increases the risk of lactic acidosis and low blood sugar.",
			Recommendation: "Limit alcohol and never drink on an empty stomach.",
		},
	},
	"acetaminophen": {
		"alcohol": {
			Severity:       entities.SeverityModerate,
			Description:    "Regular alcohol use increases the risk of liver damage from acetaminophen.",
			Recommendation: "Do not exceed the maximum daily dose and avoid alcohol while taking it regularly.",
		},
	},
	"omeprazole": {
		"vitamin b12": {
			Severity:       entities.SeverityLow,
			Description:    "Long-term omeprazole use can reduce vitamin B12 absorption from food.",
			Recommendation: "Consider checking B12 levels if you take omeprazole for more than a few years.",
		},
	},
}

// drugCategory is a named drug class and its canonical member names
type drugCategory struct {
	name    string
	members []string
}

// categoryRegistry is ordered so category lists come out the same on every call
var categoryRegistry = []drugCategory{
	{name: "nsaids", members: []string{"ibuprofen", "naproxen", "diclofenac", "celecoxib", "indomethacin", "ketoprofen", "meloxicam", "aspirin"}},
	{name: "blood_thinners", members: []string{"warfarin", "heparin", "apixaban", "rivaroxaban", "dabigatran", "enoxaparin", "clopidogrel"}},
	{name: "ace_inhibitors", members: []string{"lisinopril", "enalapril", "ramipril", "captopril", "perindopril"}},
	{name: "beta_blockers", members: []string{"metoprolol", "atenolol", "propranolol", "bisoprolol", "carvedilol"}},
	{name: "diuretics", members: []string{"furosemide", "hydrochlorothiazide", "spironolactone", "chlorthalidone", "bumetanide"}},
	{name: "antacids", members: []string{"calcium carbonate", "magnesium hydroxide", "aluminum hydroxide", "sodium bicarbonate", "antacid"}},
	{name: "antibiotics", members: []string{"ciprofloxacin", "levofloxacin", "tetracycline", "doxycycline", "amoxicillin", "azithromycin"}},
	{name: "antihistamines", members: []string{"diphenhydramine", "cetirizine", "loratadine", "chlorpheniramine", "promethazine", "hydroxyzine"}},
	{name: "statins", members: []string{"atorvastatin", "simvastatin", "rosuvastatin", "pravastatin"}},
	{name: "antidepressants", members: []string{"sertraline", "fluoxetine", "citalopram", "escitalopram", "paroxetine"}},
}

// categoryRule fires when one name is in first and the other in second,
// in either order
type categoryRule struct {
	first         string
	second        string
	distinctNames bool
	interaction   entities.DrugInteraction
}

var categoryRules = []categoryRule{
	{
		first: "nsaids", second: "nsaids", distinctNames: true,
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityHigh,
			Description:    "Taking two NSAIDs together increases the risk of stomach bleeding, ulcers and kidney damage without improving pain relief.",
			Recommendation: "Use only one NSAID at a time. Ask a pharmacist about a safer combination such as paracetamol.",
		},
	},
	{
		first: "nsaids", second: "blood_thinners",
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityHigh,
			Description:    "NSAIDs combined with blood thinners significantly increase the risk of bleeding.",
			Recommendation: "Avoid this combination unless your doctor has approved it, and watch for signs of bleeding.",
		},
	},
	{
		first: "blood_thinners", second: "blood_thinners", distinctNames: true,
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityHigh,
			Description:    "Combining two blood thinners creates a dangerous risk of bleeding.",
			Recommendation: "Do not combine blood thinners unless specifically instructed by your doctor.",
		},
	},
	{
		first: "ace_inhibitors", second: "nsaids",
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityModerate,
			Description:    "NSAIDs can reduce the blood pressure lowering effect of ACE inhibitors and increase the risk of kidney problems.",
			Recommendation: "Limit NSAID use, stay hydrated and have your blood pressure and kidney function monitored.",
		},
	},
	{
		first: "antacids", second: "antibiotics",
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityModerate,
			Description:    "Antacids can bind some antibiotics in the gut and reduce how much is absorbed.",
			Recommendation: "Take the antibiotic at least 2 hours before or 6 hours after the antacid.",
		},
	},
	{
		first: "antihistamines", second: "antihistamines", distinctNames: true,
		interaction: entities.DrugInteraction{
			Severity:       entities.SeverityModerate,
			Description:    "Using two antihistamines together can cause excessive drowsiness and sedation.",
			Recommendation: "Use only one antihistamine at a time and avoid driving if you feel drowsy.",
		},
	},
}

// interactionProneClasses are the therapeutic class fragments for which two
// medicines of the same class are reported
var interactionProneClasses = []string{
	"anticoagulant",
	"nsaid",
	"beta-blocker",
	"diuretic",
	"statin",
	"antidepressant",
}

// bleedingClassPairs are therapeutic class fragments that interact across
// classes, in either order
var bleedingClassPairs = [][2]string{
	{"anticoagulant", "nsaid"},
	{"anticoagulant", "antiplatelet"},
}

var (
	sameClassInteraction = func(class string) entities.DrugInteraction {
		return entities.DrugInteraction{
			Severity:       entities.SeverityModerate,
			Description:    "Both medicines belong to the same therapeutic class (" + class + "), so their effects and side effects can add up.",
			Recommendation: "Check with your doctor or pharmacist that taking both is intended.",
		}
	}

	bleedingClassInteraction = entities.DrugInteraction{
		Severity:       entities.SeverityHigh,
		Description:    "Combining an anticoagulant with an NSAID or antiplatelet medicine increases the risk of serious bleeding.",
		Recommendation: "Avoid this combination unless prescribed together, and report any unusual bleeding or bruising.",
	}
)
