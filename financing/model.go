package financing

import "github.com/loft/finassist/model"

// NewRuleModel returns the offline model wired with the financing extractor,
// FAQ and presenter. Unmatched routing falls back to the Questions agent.
func NewRuleModel(classifier model.Classifier) *model.RuleModel {
	return model.NewRuleModel(func(o *model.RuleOptions) {
		if classifier != nil {
			o.Classifier = classifier
		}
		o.Extractor = NewExtractor()
		o.Answerer = NewFAQ()
		o.Presenter = NewPresenter()
		o.Fallback = QuestionsAgentName
	})
}
