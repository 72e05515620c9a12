// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import "github.com/pdiddy/target-explorer/pkg/types"

// SummaryQuestion labels the summary_score row of a corpus export.
const SummaryQuestion = "Overall priority recommendation for this target."

// Questions lists, per category, the questions the model answers.
var Questions = map[types.Category][]string{
	types.CategoryDiseaseLinkage: {
		"What types of human genetic evidence link this target to the disease (e.g., GWAS loci, rare variants, burden tests, Mendelian forms)? Specify variant IDs, effect direction, and strength of association where reported.",
		"Are there replicated associations in independent cohorts or consortia (e.g., UK Biobank, FinnGen, disease-specific GWAS), and do they remain significant after correction for multiple testing?",
		"How is the target's expression or activity altered in relevant tissues, cell types, or disease stages (e.g., fold change in RNA/protein, post-translational modifications)? Specify assay type, sample origin, and quantitative effect size.",
		"What pathway or network data support a causal role (e.g., upstream regulators, downstream effectors, membership in disease modules, co-expression networks)? Summarize key nodes and directionality of effects.",
		"Are there context-specific or contradictory findings (e.g., tissue-specific opposite effects, differences between acute vs chronic models, species discrepancies, sex/age-dependent phenotypes)? Describe conditions and underlying hypotheses.",
	},
	types.CategoryValidationStrength: {
		"Which mechanistic experiments directly modulate the target (knockout/knockdown, CRISPR, overexpression, pharmacological tool compounds, biologics) and what phenotypic or biomarker changes are reported (effect sizes, EC50/IC50, p-values)?",
		"Do the reported phenotypes align with human disease biology (e.g., changes in disease-relevant pathways, surrogate endpoints, or clinical biomarkers)? Specify concordant and discordant readouts.",
		"What in vivo models (genetic models, xenografts, diet-induced, toxin-induced, patient-derived models) have been used, and what were the quantitative treatment effects (e.g., delta in disease score, survival, biomarker levels, with statistics)?",
		"Is there any evidence from interventional human studies (approved drugs, experimental agents, natural variants, Mendelian randomization) that modulating this target alters disease risk or progression? Summarize dosage, direction, and magnitude of effect.",
		"How robust and reproducible is the evidence (independent labs, orthogonal methods, blinded/randomized designs, preregistration)? Highlight key limitations, confounders, or missing controls that affect confidence in the target-disease link.",
	},
	types.CategoryDruggabilitySafety: {
		"What structural or sequence information is available (e.g., resolved 3D structures, homology models, domain architecture), and what does it imply about tractability for small molecules, antibodies, PROTACs, RNA-based, or other modalities?",
		"Are there known ligands, tool compounds, or clinical agents for this target or close homologues? Summarize binding mode, potency, selectivity profile, and chemical liabilities (e.g., PAINS, off-target panels).",
		"Is the target located in a compartment and tissue where the proposed modality can realistically reach sufficient exposure (e.g., CNS penetration, tumor microenvironment, secreted vs intracellular vs nuclear)?",
		"What is known about the target's normal physiological role (e.g., essential gene status, developmental functions, immune homeostasis), and which on-target safety risks are suggested (e.g., immunosuppression, cardiotoxicity, carcinogenicity)?",
		"Are there genetic or pharmacological data indicating intolerability or toxicity when the target is modulated (e.g., human loss-of-function phenotypes, adverse events from drugs hitting this target or its family)? Describe dose, duration, and affected systems.",
		"How selective can modulation be given target family homology (e.g., kinome, GPCR, enzyme families), and what are the key off-target concerns based on sequence/structural similarity, expression pattern overlap, or known polypharmacology?",
	},
	types.CategoryNoveltyPrioritization: {
		"What is the current level of prior art on this target (publication volume, patent activity, presence in Open Targets or other platforms, number and phase of clinical programmes)? Classify as highly validated, partially explored, or largely novel.",
		"How differentiated is the proposed mechanism of action versus existing standard-of-care and late-stage pipelines for this disease (e.g., orthogonal pathway, complementary mechanism, best-in-class vs first-in-class potential)?",
		"What critical knowledge gaps remain (e.g., unknown human biomarkers, unclear patient selection strategy, lack of translational models, unresolved mechanism in key cell types), and what specific experiments are suggested to de-risk these?",
		"How feasible is progressing this target given current assayability (robust biochemical/cell assays, available biomarkers, animal models), medicinal chemistry starting points, and anticipated time/effort to reach a decision-ready data package?",
		"Considering efficacy, safety, tractability, clinical differentiation, and feasibility, what is the overall recommendation for this target (e.g., high-priority, watch-list, low-priority), and what are the key go/no-go criteria for the next stage?",
	},
}
